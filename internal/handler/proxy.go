package handler

import (
	"io"
	"log/slog"

	"github.com/labstack/echo/v4"

	"api-gateway-go/internal/model"
	"api-gateway-go/internal/service"
)

// ProxyHandler forwards /api traffic to the backend services.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle proxies the request and streams the response back. Gateway-level
// failures arrive as ordinary responses, so Handle only fails when writing.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	pr := &model.ProxyRequest{
		Ctx:           req.Context(),
		Method:        req.Method,
		Path:          req.URL.EscapedPath(),
		Query:         req.URL.Query(),
		Header:        req.Header,
		Body:          req.Body,
		ContentLength: req.ContentLength,
	}

	resp := h.service.Forward(pr)
	defer func() { _ = resp.Body.Close() }()

	// Relayed headers replace any the middleware chain already set.
	out := c.Response().Header()
	for key, vals := range resp.Header {
		out[key] = vals
	}

	c.Response().WriteHeader(resp.StatusCode)

	// The status is already sent; a failed copy leaves the client with a
	// truncated body.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Warn("streaming response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}
