package manager

import (
	"context"
	"time"
)

// HealthChecker is implemented by runtimes that can report reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SanityReport describes runtime checks for external dependencies.
type SanityReport struct {
	RuntimeConfigured bool   `json:"runtime_configured"`
	RuntimeHealthy    bool   `json:"runtime_healthy"`
	Error             string `json:"error,omitempty"`
}

// SanityCheck validates that the runtime collaborator is configured and, if
// it supports it, reachable. It does not mutate state.
func (m *Manager) SanityCheck(ctx context.Context) SanityReport {
	var r SanityReport
	if m.runtime == nil {
		r.Error = "model runtime not configured"
		return r
	}
	r.RuntimeConfigured = true
	hc, ok := m.runtime.(HealthChecker)
	if !ok {
		r.RuntimeHealthy = true
		return r
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := hc.Health(ctx); err != nil {
		r.Error = err.Error()
		return r
	}
	r.RuntimeHealthy = true
	return r
}
