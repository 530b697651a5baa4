// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/mfriedel/looksel/internal/domain"
)

// StereoSelector defines the primary port for two-scene stereo selection.
type StereoSelector interface {
	// SelectPairs runs the filter/evaluate/gate pipeline for every anchor
	// in the pool and returns all surviving pairs.
	SelectPairs(ctx context.Context, pool []domain.Footprint, params domain.SelectionParams) ([]domain.OverlapPair, error)
}

// MultilookSelector defines the primary port for chained multilook selection.
type MultilookSelector interface {
	// SelectGroups expands a chain from every anchor in the pool and
	// returns every valid intermediate group.
	SelectGroups(ctx context.Context, pool []domain.Footprint, params domain.SelectionParams) ([]domain.MultilookGroup, error)
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if the service is ready to serve results.
	IsReady(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy           bool              // Overall health status
	Ready             bool              // Ready to serve results
	FootprintsLoaded  int               // Footprints in the pool
	InvalidFootprints int               // Records rejected at ingest
	Components        map[string]string // Component statuses
}
