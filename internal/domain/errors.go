package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("service unavailable")
)

// Specific errors.
var (
	ErrInvalidFootprint   = fmt.Errorf("footprint: %w", ErrInvalidInput)
	ErrFootprintNotFound  = fmt.Errorf("footprint: %w", ErrNotFound)
	ErrDegenerateOverlap  = fmt.Errorf("zero-area union: %w", ErrInvalidInput)
	ErrStoreUnavailable   = fmt.Errorf("scene store: %w", ErrUnavailable)
	ErrStorageUnavailable = fmt.Errorf("storage: %w", ErrUnavailable)
)

// FootprintError reports a malformed footprint record. It is fatal for
// that footprint's role as an anchor but never aborts a whole run.
type FootprintError struct {
	ID     string // Scene id, may be empty when the id itself is missing
	Reason string // What is wrong with the record
	Err    error  // Sentinel root, usually ErrInvalidFootprint
}

// Error implements the error interface.
func (e *FootprintError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("footprint %s: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("footprint: %s", e.Reason)
}

// Unwrap returns the sentinel root.
func (e *FootprintError) Unwrap() error {
	return e.Err
}

// ConfigError reports an unusable run parameter. Surfaced to the caller
// before any processing begins.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error type.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}

// SelectionError wraps a failure while processing one anchor.
type SelectionError struct {
	AnchorID string // Anchor scene id
	Stage    string // Pipeline stage (filter, evaluate, expand, ...)
	Err      error  // Underlying error
}

// Error implements the error interface.
func (e *SelectionError) Error() string {
	return fmt.Sprintf("selection error for anchor %s during %s: %v", e.AnchorID, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *SelectionError) Unwrap() error {
	return e.Err
}

// StoreError reports a scene-store failure.
type StoreError struct {
	Operation string // Operation that failed (insert, query, migrate, ...)
	Table     string // Affected table, if any
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("store error during %s on %s: %v", e.Operation, e.Table, e.Err)
	}
	return fmt.Sprintf("store error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// StorageError reports an object-storage failure while fetching footprint
// files.
type StorageError struct {
	Operation string // Operation that failed (download, list, ...)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v", e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// CatalogError reports a remote catalog (search API) failure.
type CatalogError struct {
	Operation  string // API operation (quick-search, next-page, ...)
	StatusCode int    // HTTP status, 0 when transport failed
	Err        error  // Underlying error
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog error during %s (status %d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("catalog error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *CatalogError) Unwrap() error {
	return e.Err
}
