package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"api-gateway-go/internal/client"
	"api-gateway-go/internal/config"
	"api-gateway-go/internal/metrics"
	"api-gateway-go/internal/model"
	"api-gateway-go/internal/route"
)

// healthPath is appended to a service base URL to build its probe URL.
const healthPath = "/health"

// HealthService probes backend services on demand.
type HealthService struct {
	client     *client.UpstreamClient
	services   *route.Directory
	sequential bool
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewHealthService creates a HealthService. The metrics parameter is optional.
func NewHealthService(
	c *client.UpstreamClient,
	services *route.Directory,
	cfg *config.Config,
	logger *slog.Logger,
	m *metrics.Metrics,
) *HealthService {
	return &HealthService{
		client:     c,
		services:   services,
		sequential: cfg.Health.Sequential,
		logger:     logger.With("component", "health_service"),
		metrics:    m,
		now:        time.Now,
	}
}

// Services returns the probed service names in configuration order.
func (s *HealthService) Services() []string {
	return s.services.Names()
}

// CheckOne probes a single service. Unknown services are reported unhealthy
// with zero response time, without any network call.
func (s *HealthService) CheckOne(ctx context.Context, name string) model.HealthCheckResult {
	baseURL, ok := s.services.Resolve(name)
	if !ok {
		s.logger.Warn("health check for unknown service", "service", name)
		return model.HealthCheckResult{
			Service:    name,
			Status:     model.StatusUnhealthy,
			ObservedAt: s.now(),
		}
	}

	start := time.Now()
	code, err := s.client.Probe(ctx, baseURL+healthPath)
	elapsed := time.Since(start)

	result := model.HealthCheckResult{
		Service:        name,
		Status:         model.StatusUnhealthy,
		ResponseTimeMs: elapsed.Milliseconds(),
		ObservedAt:     s.now(),
	}
	switch {
	case err != nil:
		s.logger.Error("health check failed",
			"service", name,
			"err", err,
			"response_time_ms", result.ResponseTimeMs,
		)
	case code == http.StatusOK:
		result.Status = model.StatusHealthy
		s.logger.Info("health check", "service", name, "status", result.Status, "response_time_ms", result.ResponseTimeMs)
	default:
		s.logger.Warn("health check", "service", name, "status", result.Status, "code", code, "response_time_ms", result.ResponseTimeMs)
	}

	if s.metrics != nil {
		s.metrics.ObserveHealth(name, result.Healthy(), elapsed.Seconds())
	}
	return result
}

// CheckAll probes every configured service and returns results in
// configuration order. Probes run in parallel unless configured otherwise;
// each has its own timeout, so one slow service does not affect the others.
func (s *HealthService) CheckAll(ctx context.Context) []model.HealthCheckResult {
	names := s.services.Names()
	results := make([]model.HealthCheckResult, len(names))

	if s.sequential {
		for i, name := range names {
			results[i] = s.CheckOne(ctx, name)
		}
		return results
	}

	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			results[i] = s.CheckOne(ctx, name)
			return nil
		})
	}
	_ = g.Wait() // CheckOne never fails
	return results
}

// Overall is healthy iff every result is healthy.
func Overall(results []model.HealthCheckResult) model.HealthStatus {
	for _, r := range results {
		if !r.Healthy() {
			return model.StatusUnhealthy
		}
	}
	return model.StatusHealthy
}
