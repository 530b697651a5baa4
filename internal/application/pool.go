package application

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mfriedel/looksel/internal/domain"
	"github.com/mfriedel/looksel/internal/ports/output"
)

// FootprintPool holds the in-memory footprint catalog for a selection run
// or a serving process. The pool is filled from object storage and read
// concurrently by the selection services; snapshots are copies, so the
// pool never shares mutable state with a running selection.
type FootprintPool struct {
	mu         sync.RWMutex
	footprints map[string]domain.Footprint
	invalid    int

	storage output.ObjectStorage
	parser  output.FootprintParser
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewFootprintPool creates an empty pool over the given storage backend.
func NewFootprintPool(storage output.ObjectStorage, parser output.FootprintParser, metrics output.MetricsCollector, logger *slog.Logger) *FootprintPool {
	return &FootprintPool{
		footprints: make(map[string]domain.Footprint),
		storage:    storage,
		parser:     parser,
		metrics:    metrics,
		logger:     logger,
	}
}

// Add validates and registers footprints, replacing records with the same
// id. Invalid records are counted and skipped.
func (p *FootprintPool) Add(footprints []domain.Footprint) (added int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range footprints {
		fp := footprints[i]
		if err := fp.Validate(); err != nil {
			p.logger.Warn("rejecting footprint at ingest", "id", fp.ID, "error", err)
			p.invalid++
			p.metrics.IncInvalidFootprints()
			continue
		}
		p.footprints[fp.ID] = fp
		added++
	}

	p.metrics.SetFootprintsLoaded(len(p.footprints))
	return added
}

// Remove drops a footprint by id.
func (p *FootprintPool) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.footprints, id)
	p.metrics.SetFootprintsLoaded(len(p.footprints))
}

// Snapshot returns a copy of the pool ordered by scene id. Selections run
// against snapshots, never against the live map.
func (p *FootprintPool) Snapshot() []domain.Footprint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := make([]domain.Footprint, 0, len(p.footprints))
	for _, fp := range p.footprints {
		snapshot = append(snapshot, fp)
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })
	return snapshot
}

// Get returns a footprint by id.
func (p *FootprintPool) Get(id string) (domain.Footprint, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fp, ok := p.footprints[id]
	return fp, ok
}

// Count returns the number of footprints in the pool.
func (p *FootprintPool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.footprints)
}

// InvalidCount returns how many records were rejected at ingest.
func (p *FootprintPool) InvalidCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.invalid
}

// LoadAll fills the pool from every footprint file in storage.
func (p *FootprintPool) LoadAll(ctx context.Context) error {
	p.logger.Info("loading footprint files from storage")

	start := time.Now()
	objects, err := p.storage.List(ctx)
	if err != nil {
		p.metrics.IncStorageOperations("list", false)
		return err
	}
	p.metrics.IncStorageOperations("list", true)

	loaded := 0
	for _, obj := range objects {
		if !IsFootprintFile(obj.Key) {
			continue
		}
		if err := p.LoadObject(ctx, obj.Key); err != nil {
			p.logger.Error("failed to load footprint file", "key", obj.Key, "error", err)
			continue
		}
		loaded++
	}

	p.metrics.ObserveStorageDuration("load_all", time.Since(start))
	p.logger.Info("footprint pool loaded",
		"files", loaded,
		"footprints", p.Count(),
		"invalid", p.InvalidCount(),
	)
	return nil
}

// LoadObject parses one footprint file from storage into the pool.
func (p *FootprintPool) LoadObject(ctx context.Context, key string) error {
	reader, err := p.storage.GetReader(ctx, key)
	if err != nil {
		p.metrics.IncStorageOperations("read", false)
		return &domain.StorageError{Operation: "read", Key: key, Err: err}
	}
	defer reader.Close()
	p.metrics.IncStorageOperations("read", true)

	footprints, skipped, err := p.parser.Parse(reader)
	if err != nil {
		return &domain.StorageError{Operation: "parse", Key: key, Err: err}
	}

	added := p.Add(footprints)
	p.logger.Debug("footprint file ingested", "key", key, "added", added, "skipped", skipped)
	return nil
}

// IsFootprintFile reports whether a storage key looks like a footprint
// catalog file.
func IsFootprintFile(key string) bool {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".geojson", ".json":
		return true
	default:
		return false
	}
}
