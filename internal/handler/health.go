package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"api-gateway-go/internal/model"
	"api-gateway-go/internal/route"
	"api-gateway-go/internal/service"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves the gateway's own status endpoints and the
// aggregated backend health views.
type HealthHandler struct {
	health   *service.HealthService
	services *route.Directory
	version  Version
	started  time.Time
	now      func() time.Time
}

// NewHealthHandler creates a HealthHandler. Uptime is measured from here.
func NewHealthHandler(hs *service.HealthService, services *route.Directory, v Version) *HealthHandler {
	return &HealthHandler{
		health:   hs,
		services: services,
		version:  v,
		started:  time.Now(),
		now:      time.Now,
	}
}

type rootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

type gatewayStatus struct {
	Status        model.HealthStatus `json:"status"`
	UptimeSeconds float64            `json:"uptime"`
	Version       string             `json:"version"`
}

type healthResponse struct {
	Status    model.HealthStatus        `json:"status"`
	Timestamp time.Time                 `json:"timestamp"`
	Services  []model.HealthCheckResult `json:"services"`
	Gateway   gatewayStatus             `json:"gateway"`
}

type servicesListResponse struct {
	Services []string `json:"services"`
	Count    int      `json:"count"`
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Root describes the gateway and its configured services.
func (h *HealthHandler) Root(c echo.Context) error {
	services := make(map[string]string)
	for _, ep := range h.services.Endpoints() {
		services[ep.Name] = ep.BaseURL
	}
	return c.JSON(http.StatusOK, rootResponse{
		Message:   "API Gateway",
		Version:   string(h.version),
		Timestamp: h.now().UTC(),
		Services:  services,
	})
}

// Health probes every service and reports the aggregate. The response is
// 200 even when a service is down; the status field carries the verdict.
func (h *HealthHandler) Health(c echo.Context) error {
	results := h.health.CheckAll(c.Request().Context())
	now := h.now()
	return c.JSON(http.StatusOK, healthResponse{
		Status:    service.Overall(results),
		Timestamp: now.UTC(),
		Services:  results,
		Gateway: gatewayStatus{
			Status:        model.StatusHealthy,
			UptimeSeconds: now.Sub(h.started).Seconds(),
			Version:       string(h.version),
		},
	})
}

// ServiceHealth probes a single service by name.
func (h *HealthHandler) ServiceHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.CheckOne(c.Request().Context(), c.Param("service")))
}

// ServicesList returns the names of all configured services.
func (h *HealthHandler) ServicesList(c echo.Context) error {
	names := h.health.Services()
	return c.JSON(http.StatusOK, servicesListResponse{Services: names, Count: len(names)})
}
