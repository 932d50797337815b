package services

import (
	"context"
	"log/slog"
	"time"
)

// Health statuses. StatusUnknown marks a component name the service does not
// recognize, as opposed to a known component that failed its probe.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusUnknown   = "unknown"
)

// degradedLatency marks the database component degraded when a probe takes
// longer than this.
const degradedLatency = 500 * time.Millisecond

// DatabasePinger is the probe the health service runs against the store
type DatabasePinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthStatus is the basic liveness response
type HealthStatus struct {
	Status    string `json:"status"`
	AppName   string `json:"app_name"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// ComponentHealth describes one dependency's state
type ComponentHealth struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Detail    string `json:"detail,omitempty"`
}

// DetailedHealth aggregates component states. Any component that is not
// healthy degrades the overall status.
type DetailedHealth struct {
	Status        string            `json:"status"`
	AppName       string            `json:"app_name"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Timestamp     string            `json:"timestamp"`
	Components    []ComponentHealth `json:"components"`
}

// HealthService reports service and dependency health
type HealthService struct {
	db        DatabasePinger
	appName   string
	version   string
	startedAt time.Time
	logger    *slog.Logger
}

func NewHealthService(db DatabasePinger, appName, version string, logger *slog.Logger) *HealthService {
	return &HealthService{
		db:        db,
		appName:   appName,
		version:   version,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// Basic is a cheap liveness check that touches no dependencies.
func (s *HealthService) Basic() *HealthStatus {
	return &HealthStatus{
		Status:    StatusHealthy,
		AppName:   s.appName,
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Detailed probes every dependency and aggregates the result.
func (s *HealthService) Detailed(ctx context.Context) *DetailedHealth {
	components := []ComponentHealth{
		s.checkDatabase(ctx),
	}

	// A failing dependency degrades the service; the API itself is still up,
	// so the overall status never reports unhealthy.
	status := StatusHealthy
	for _, c := range components {
		if c.Status != StatusHealthy {
			status = StatusDegraded
		}
	}

	if status != StatusHealthy {
		s.logger.Warn("health check reported problems", slog.String("status", status))
	}

	return &DetailedHealth{
		Status:        status,
		AppName:       s.appName,
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Components:    components,
	}
}

// Component probes a single named dependency. An unrecognized name yields a
// StatusUnknown report rather than an error, so callers can tell "no such
// component" apart from "component failed".
func (s *HealthService) Component(ctx context.Context, name string) *ComponentHealth {
	switch name {
	case "database":
		c := s.checkDatabase(ctx)
		return &c
	case "api":
		return &ComponentHealth{Name: "api", Status: StatusHealthy}
	case "logging":
		// Writing through the logger is the check itself.
		s.logger.Debug("logging health probe")
		return &ComponentHealth{Name: "logging", Status: StatusHealthy}
	default:
		s.logger.Warn("unknown health component requested", slog.String("component", name))
		return &ComponentHealth{Name: name, Status: StatusUnknown, Detail: "unknown component"}
	}
}

func (s *HealthService) checkDatabase(ctx context.Context) ComponentHealth {
	start := time.Now()
	err := s.db.HealthCheck(ctx)
	latency := time.Since(start)

	c := ComponentHealth{
		Name:      "database",
		LatencyMS: latency.Milliseconds(),
	}
	switch {
	case err != nil:
		c.Status = StatusUnhealthy
		c.Detail = "database unreachable"
	case latency > degradedLatency:
		c.Status = StatusDegraded
		c.Detail = "database responding slowly"
	default:
		c.Status = StatusHealthy
	}
	return c
}
