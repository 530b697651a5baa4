package application

import (
	"context"
	"testing"

	"github.com/mfriedel/looksel/internal/domain"
)

func TestHealthDetails(t *testing.T) {
	pool := NewFootprintPool(&mockStorage{}, &mockParser{}, &mockMetrics{}, testLogger())
	pool.Add([]domain.Footprint{
		{ID: "a", Geometry: square(0, 0, 10)},
		{ID: ""},
	})

	svc := NewHealthService(pool)
	ctx := context.Background()

	if !svc.IsHealthy(ctx) {
		t.Error("IsHealthy() = false, want true")
	}
	if !svc.IsReady(ctx) {
		t.Error("IsReady() = false, want true")
	}

	details := svc.GetHealthDetails(ctx)
	if !details.Healthy || !details.Ready {
		t.Errorf("details healthy/ready = %v/%v, want true/true", details.Healthy, details.Ready)
	}
	if details.FootprintsLoaded != 1 {
		t.Errorf("FootprintsLoaded = %d, want 1", details.FootprintsLoaded)
	}
	if details.InvalidFootprints != 1 {
		t.Errorf("InvalidFootprints = %d, want 1", details.InvalidFootprints)
	}
	if details.Components["pool"] != "ok" {
		t.Errorf("components = %v, want pool ok", details.Components)
	}
}

func TestHealthEmptyPoolIsReady(t *testing.T) {
	svc := NewHealthService(NewFootprintPool(&mockStorage{}, &mockParser{}, &mockMetrics{}, testLogger()))
	if !svc.IsReady(context.Background()) {
		t.Error("an empty pool is still a ready pool")
	}
}
