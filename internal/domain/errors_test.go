package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSentinelWrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"invalid footprint", ErrInvalidFootprint, ErrInvalidInput},
		{"footprint not found", ErrFootprintNotFound, ErrNotFound},
		{"degenerate overlap", ErrDegenerateOverlap, ErrInvalidInput},
		{"store unavailable", ErrStoreUnavailable, ErrUnavailable},
		{"storage unavailable", ErrStorageUnavailable, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%v should wrap %v", tt.err, tt.sentinel)
			}
		})
	}
}

func TestFootprintError(t *testing.T) {
	err := &FootprintError{ID: "scene-9", Reason: "missing geometry", Err: ErrInvalidFootprint}

	if !errors.Is(err, ErrInvalidFootprint) {
		t.Error("FootprintError should unwrap to ErrInvalidFootprint")
	}
	if !strings.Contains(err.Error(), "scene-9") {
		t.Errorf("Error() should mention the scene id: %q", err.Error())
	}

	anon := &FootprintError{Reason: "missing id", Err: ErrInvalidFootprint}
	if strings.Contains(anon.Error(), "  ") {
		t.Errorf("Error() without id formatted badly: %q", anon.Error())
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "min_pairs", Message: "must be positive"}

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ConfigError should unwrap to ErrInvalidInput")
	}
	if !strings.Contains(err.Error(), "min_pairs") {
		t.Errorf("Error() should mention the field: %q", err.Error())
	}
}

func TestSelectionError(t *testing.T) {
	underlying := fmt.Errorf("boom")
	err := &SelectionError{AnchorID: "a1", Stage: "expand", Err: underlying}

	if !errors.Is(err, underlying) {
		t.Error("SelectionError should unwrap to the underlying error")
	}
	for _, want := range []string{"a1", "expand"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Error() = %q, should contain %q", err.Error(), want)
		}
	}
}

func TestStoreAndStorageErrors(t *testing.T) {
	storeErr := &StoreError{Operation: "insert", Table: "stereo_pairs", Err: ErrInternal}
	if !errors.Is(storeErr, ErrInternal) {
		t.Error("StoreError should unwrap")
	}
	if !strings.Contains(storeErr.Error(), "stereo_pairs") {
		t.Errorf("StoreError message = %q", storeErr.Error())
	}

	noTable := &StoreError{Operation: "migrate", Err: ErrInternal}
	if strings.Contains(noTable.Error(), "on ") {
		t.Errorf("StoreError without table formatted badly: %q", noTable.Error())
	}

	storageErr := &StorageError{Operation: "download", Key: "footprints.geojson", Err: ErrUnavailable}
	if !errors.Is(storageErr, ErrUnavailable) {
		t.Error("StorageError should unwrap")
	}
}

func TestCatalogError(t *testing.T) {
	err := &CatalogError{Operation: "quick-search", StatusCode: 429, Err: ErrUnavailable}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Error() should contain status code: %q", err.Error())
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("CatalogError should unwrap")
	}
}
