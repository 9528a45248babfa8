package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"api-gateway-go/internal/model"
)

// NewErrorHandler returns an Echo error handler that renders every error as
// the gateway's JSON error body. Internal details stay in the logs.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "error_handler")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		req := c.Request()
		status := http.StatusInternalServerError
		body := model.ErrorBody{Error: "internal_error", Message: "Internal server error"}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch status {
			case http.StatusNotFound:
				body = model.ErrorBody{
					Error:   "not_found",
					Message: fmt.Sprintf("Route %s %s not found", req.Method, req.URL.Path),
				}
			case http.StatusMethodNotAllowed:
				body = model.ErrorBody{Error: "method_not_allowed", Message: "Method not allowed"}
			case http.StatusRequestEntityTooLarge:
				body = model.ErrorBody{Error: "payload_too_large", Message: "Request body too large"}
			default:
				if status < http.StatusInternalServerError {
					body = model.ErrorBody{
						Error:   "bad_request",
						Message: http.StatusText(status),
					}
				}
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("unhandled error", "err", err, "method", req.Method, "path", req.URL.Path)
		}

		var werr error
		if req.Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Warn("writing error response", "err", werr)
		}
	}
}
