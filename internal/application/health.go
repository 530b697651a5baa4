package application

import (
	"context"

	"github.com/mfriedel/looksel/internal/ports/input"
)

// HealthService provides health check functionality.
type HealthService struct {
	pool *FootprintPool
}

// NewHealthService creates a new health service.
func NewHealthService(pool *FootprintPool) *HealthService {
	return &HealthService{pool: pool}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(_ context.Context) bool {
	return true // Basic health check
}

// IsReady returns true if the service is ready to serve results. An empty
// pool is a valid (if unproductive) state.
func (s *HealthService) IsReady(_ context.Context) bool {
	return s.pool != nil
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	components := map[string]string{
		"pool": "ok",
	}

	return input.HealthDetails{
		Healthy:           s.IsHealthy(ctx),
		Ready:             s.IsReady(ctx),
		FootprintsLoaded:  s.pool.Count(),
		InvalidFootprints: s.pool.InvalidCount(),
		Components:        components,
	}
}
