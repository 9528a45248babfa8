package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"api-gateway-go/internal/config"
)

func TestRoutesList(t *testing.T) {
	e := newTestGateway(t, testConfig(config.ServicesConfig{}))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/routes", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body routesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []routeInfo{
		{Path: "/api/weather", Service: "weather", RequiresAuth: false},
		{Path: "/api/auth", Service: "auth", RequiresAuth: true},
		{Path: "/api/cache", Service: "cache", RequiresAuth: false},
		{Path: "/api/alerts", Service: "alert", RequiresAuth: true},
	}
	if len(body.Routes) != len(want) {
		t.Fatalf("routes = %d, want %d", len(body.Routes), len(want))
	}
	for i, w := range want {
		got := body.Routes[i]
		if got.Path != w.Path || got.Service != w.Service || got.RequiresAuth != w.RequiresAuth {
			t.Errorf("routes[%d] = %+v, want %+v", i, got, w)
		}
		if len(got.Methods) == 0 {
			t.Errorf("routes[%d].methods is empty", i)
		}
	}
}

func TestRoutesList_WireFieldNames(t *testing.T) {
	e := newTestGateway(t, testConfig(config.ServicesConfig{}))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/routes", http.NoBody))

	var body struct {
		Routes []map[string]any `json:"routes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Routes) == 0 {
		t.Fatal("no routes listed")
	}
	if got, ok := body.Routes[1]["requiresAuth"]; !ok || got != true {
		t.Errorf("routes[1].requiresAuth = %v (present %v), want true", got, ok)
	}
}

func TestRegisterRoutes_Unknown(t *testing.T) {
	e := newTestGateway(t, testConfig(config.ServicesConfig{}))

	tests := []struct {
		name     string
		method   string
		target   string
		wantCode string
	}{
		// Paths outside /api never reach the proxy engine.
		{"outside api", http.MethodGet, "/nope", "not_found"},
		{"health subpath", http.MethodGet, "/health/a/b", "not_found"},
		// Under /api the proxy engine owns the 404.
		{"api subpath", http.MethodGet, "/api/nope", "route_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, httptest.NewRequest(tt.method, tt.target, http.NoBody))
			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
			}
			if got := decodeError(t, rec).Error; got != tt.wantCode {
				t.Errorf("error = %q, want %q", got, tt.wantCode)
			}
		})
	}
}
