package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"api-gateway-go/internal/client"
	"api-gateway-go/internal/config"
	"api-gateway-go/internal/model"
	"api-gateway-go/internal/rewrite"
	"api-gateway-go/internal/route"
	"api-gateway-go/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(services config.ServicesConfig) *config.Config {
	if services.WeatherPathPrefix == "" {
		services.WeatherPathPrefix = "/weather"
	}
	return &config.Config{
		Services: services,
		Upstream: config.UpstreamConfig{
			TimeoutSeconds:       10,
			HealthTimeoutSeconds: 2,
			IdleConnections:      10,
		},
	}
}

// newTestGateway wires the full handler stack the way main does, minus
// middleware that is tested on its own.
func newTestGateway(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()

	logger := discardLogger()
	table := route.NewDefaultTable()
	dir := route.NewDirectoryFromConfig(cfg)
	uc := client.NewUpstreamClient(cfg, logger, nil)

	proxy := NewProxyHandler(
		service.NewProxyService(uc, table, dir, rewrite.NewFromConfig(cfg), logger, nil),
		logger,
	)
	health := NewHealthHandler(service.NewHealthService(uc, dir, cfg, logger, nil), dir, "test")

	e := echo.New()
	e.HTTPErrorHandler = NewErrorHandler(logger)
	RegisterRoutes(e, proxy, health, NewRoutesHandler(table))
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorBody {
	t.Helper()
	var body model.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestProxyHandler_WeatherCity(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather/current/São Paulo" {
			t.Errorf("upstream path = %q", r.URL.Path)
		}
		if r.URL.Query().Has("city") {
			t.Error("city should be consumed by the rewrite")
		}
		if r.URL.Query().Get("units") != "metric" {
			t.Errorf("units = %q, want metric", r.URL.Query().Get("units"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", "weather")
		_, _ = w.Write([]byte(`{"temp":21}`))
	}))
	defer upstream.Close()

	e := newTestGateway(t, testConfig(config.ServicesConfig{Weather: upstream.URL}))

	req := httptest.NewRequest(http.MethodGet, "/api/weather?city=S%C3%A3o+Paulo&units=metric", http.NoBody)
	rec := serve(e, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if rec.Body.String() != `{"temp":21}` {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("X-Upstream") != "weather" {
		t.Errorf("X-Upstream = %q, want weather", rec.Header().Get("X-Upstream"))
	}
}

func TestProxyHandler_PostBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/login" {
			t.Errorf("path = %q, want /login", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	}))
	defer upstream.Close()

	e := newTestGateway(t, testConfig(config.ServicesConfig{Auth: upstream.URL}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"user":"ana"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(e, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if rec.Body.String() != `{"user":"ana"}` {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestProxyHandler_RelaysUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such key"))
	}))
	defer upstream.Close()

	e := newTestGateway(t, testConfig(config.ServicesConfig{Cache: upstream.URL}))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/cache/missing", http.NoBody))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec.Body.String() != "no such key" {
		t.Errorf("body = %q, want upstream body", rec.Body.String())
	}
}

func TestProxyHandler_LocalErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("upstream should not be called")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	cfg := testConfig(config.ServicesConfig{Weather: upstream.URL, Cache: upstream.URL})

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantCode   string
	}{
		{"unknown route", http.MethodGet, "/api/unknown", http.StatusNotFound, "route_not_found"},
		{"bare api", http.MethodGet, "/api", http.StatusNotFound, "route_not_found"},
		{"unconfigured service", http.MethodGet, "/api/auth/me", http.StatusServiceUnavailable, "service_unconfigured"},
		{"method not allowed", http.MethodDelete, "/api/weather", http.StatusMethodNotAllowed, "method_not_allowed"},
		{"missing city", http.MethodGet, "/api/weather", http.StatusBadRequest, "missing_city"},
	}

	e := newTestGateway(t, cfg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, httptest.NewRequest(tt.method, tt.target, http.NoBody))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decodeError(t, rec).Error; got != tt.wantCode {
				t.Errorf("error = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestProxyHandler_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := upstream.URL
	upstream.Close()

	e := newTestGateway(t, testConfig(config.ServicesConfig{Cache: addr}))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/cache/k", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	body := decodeError(t, rec)
	if body.Error != "service_unavailable" {
		t.Errorf("error = %q, want service_unavailable", body.Error)
	}
	if strings.Contains(body.Message, "127.0.0.1") {
		t.Errorf("message leaks upstream address: %q", body.Message)
	}
}
