package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"api-gateway-go/internal/config"
	"api-gateway-go/internal/model"
)

func newLimitedEcho(cfg config.RateLimitConfig) *echo.Echo {
	e := echo.New()
	e.Use(RateLimiter(cfg))
	e.GET("/api/cache/key", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func TestRateLimiter_AllowsBurstThenDenies(t *testing.T) {
	e := newLimitedEcho(config.RateLimitConfig{WindowSeconds: 900, MaxRequests: 3})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/cache/key", http.NoBody)
		req.RemoteAddr = "192.0.2.10:5000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/cache/key", http.NoBody)
	req.RemoteAddr = "192.0.2.10:5000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	var body model.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "too_many_requests" {
		t.Errorf("error = %q, want too_many_requests", body.Error)
	}
	if body.Message == "" {
		t.Error("message is empty")
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	e := newLimitedEcho(config.RateLimitConfig{WindowSeconds: 900, MaxRequests: 1})

	for _, addr := range []string{"192.0.2.1:1000", "192.0.2.2:1000"} {
		req := httptest.NewRequest(http.MethodGet, "/api/cache/key", http.NoBody)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", addr, rec.Code, http.StatusOK)
		}
	}
}
