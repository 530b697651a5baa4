package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncAnchorsProcessed increments the processed-anchor counter.
	IncAnchorsProcessed(mode string, success bool)

	// IncInvalidFootprints increments the skipped-invalid-footprint counter.
	IncInvalidFootprints()

	// IncPairsFound adds to the stereo pair counter.
	IncPairsFound(count int)

	// IncGroupsFound adds to the multilook group counter.
	IncGroupsFound(count int)

	// ObserveSelectionDuration records a whole selection run's duration.
	ObserveSelectionDuration(mode string, duration time.Duration)

	// SetFootprintsLoaded sets the size of the in-memory footprint pool.
	SetFootprintsLoaded(count int)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records storage operation duration.
	ObserveStorageDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncAnchorsProcessed implements MetricsCollector.
func (n *NoOpMetrics) IncAnchorsProcessed(_ string, _ bool) {}

// IncInvalidFootprints implements MetricsCollector.
func (n *NoOpMetrics) IncInvalidFootprints() {}

// IncPairsFound implements MetricsCollector.
func (n *NoOpMetrics) IncPairsFound(_ int) {}

// IncGroupsFound implements MetricsCollector.
func (n *NoOpMetrics) IncGroupsFound(_ int) {}

// ObserveSelectionDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveSelectionDuration(_ string, _ time.Duration) {}

// SetFootprintsLoaded implements MetricsCollector.
func (n *NoOpMetrics) SetFootprintsLoaded(_ int) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}
