package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"api-gateway-go/internal/route"
)

// RoutesHandler exposes the route table for discovery.
type RoutesHandler struct {
	routes *route.Table
}

// NewRoutesHandler creates a RoutesHandler.
func NewRoutesHandler(t *route.Table) *RoutesHandler {
	return &RoutesHandler{routes: t}
}

type routeInfo struct {
	Path         string   `json:"path"`
	Service      string   `json:"service"`
	Methods      []string `json:"methods"`
	RequiresAuth bool     `json:"requiresAuth"`
}

type routesResponse struct {
	Message string      `json:"message"`
	Routes  []routeInfo `json:"routes"`
}

// List returns every route in match order.
func (h *RoutesHandler) List(c echo.Context) error {
	routes := h.routes.Routes()
	infos := make([]routeInfo, 0, len(routes))
	for _, r := range routes {
		infos = append(infos, routeInfo{
			Path:         r.Prefix,
			Service:      r.Service,
			Methods:      r.Methods,
			RequiresAuth: r.RequiresAuth,
		})
	}
	return c.JSON(http.StatusOK, routesResponse{
		Message: "Available API Gateway routes",
		Routes:  infos,
	})
}

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler, health *HealthHandler, routes *RoutesHandler) {
	e.GET("/", health.Root)
	e.GET("/healthz", health.Healthz)
	e.GET("/health", health.Health)
	e.GET("/health/services/list", health.ServicesList)
	e.GET("/health/:service", health.ServiceHealth)

	e.GET("/api/routes", routes.List)
	e.Any("/api", proxy.Handle)
	e.Any("/api/*", proxy.Handle)
}
