package model

import "time"

// HealthStatus classifies a service or the gateway as a whole.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult is computed fresh on every probe and never stored.
// An unknown service and an unreachable one both report unhealthy; only
// ResponseTimeMs (zero for unknown) tells them apart.
type HealthCheckResult struct {
	Service        string       `json:"service"`
	Status         HealthStatus `json:"status"`
	ResponseTimeMs int64        `json:"responseTime"`
	ObservedAt     time.Time    `json:"timestamp"`
}

// Healthy reports whether the probe succeeded.
func (r HealthCheckResult) Healthy() bool {
	return r.Status == StatusHealthy
}
