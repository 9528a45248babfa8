package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"api-gateway-go/internal/config"
	"api-gateway-go/internal/model"
)

// RateLimiter returns a per-IP limiter allowing MaxRequests per window.
// The window is spread as a token bucket with a burst of MaxRequests, so a
// client can spend its whole allowance at once and then refills gradually.
func RateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	window := cfg.Window()
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(cfg.MaxRequests) / window.Seconds()),
		Burst:     cfg.MaxRequests,
		ExpiresIn: window,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.JSON(http.StatusForbidden, model.ErrorBody{
				Error:   "forbidden",
				Message: "Unable to identify client",
			})
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, model.ErrorBody{
				Error:   "too_many_requests",
				Message: "Too many requests from this IP, please try again later.",
			})
		},
	})
}
