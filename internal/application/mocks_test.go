package application

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mfriedel/looksel/internal/domain"
	"github.com/mfriedel/looksel/internal/ports/output"
)

// testLogger returns a logger that discards everything.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// square builds an axis-aligned square footprint polygon.
func square(x, y, size float64) orb.Polygon {
	return rect(x, y, x+size, y+size)
}

// rect builds an axis-aligned rectangle polygon.
func rect(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

// rectEngine implements output.GeometryEngine for axis-aligned rectangles.
// Intersections of axis-aligned rectangles are themselves rectangles, so
// the engine is exact for every test fixture built from rect/square.
// Union falls back to the combined bound, which is exact whenever the two
// rectangles span the same y-range (or are identical) - tests relying on
// union areas keep to those shapes.
type rectEngine struct{}

func (rectEngine) Intersects(a, b orb.Geometry) bool {
	g := rectEngine{}
	inter, _ := g.Intersection(a, b)
	return inter != nil
}

func (rectEngine) Intersection(a, b orb.Geometry) (orb.Geometry, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	ba, bb := a.Bound(), b.Bound()
	minX := ba.Min[0]
	if bb.Min[0] > minX {
		minX = bb.Min[0]
	}
	minY := ba.Min[1]
	if bb.Min[1] > minY {
		minY = bb.Min[1]
	}
	maxX := ba.Max[0]
	if bb.Max[0] < maxX {
		maxX = bb.Max[0]
	}
	maxY := ba.Max[1]
	if bb.Max[1] < maxY {
		maxY = bb.Max[1]
	}
	if maxX <= minX || maxY <= minY {
		return nil, nil
	}
	return rect(minX, minY, maxX, maxY), nil
}

func (rectEngine) Union(a, b orb.Geometry) (orb.Geometry, error) {
	bound := a.Bound().Union(b.Bound())
	return bound.ToPolygon(), nil
}

func (rectEngine) Area(g orb.Geometry) float64 {
	return planar.Area(g)
}

// stubEngine returns scripted results, for failure-path tests that real
// rectangles cannot reach.
type stubEngine struct {
	intersects   bool
	intersection orb.Geometry
	interErr     error
	union        orb.Geometry
	unionErr     error
}

func (s *stubEngine) Intersects(_, _ orb.Geometry) bool { return s.intersects }

func (s *stubEngine) Intersection(_, _ orb.Geometry) (orb.Geometry, error) {
	return s.intersection, s.interErr
}

func (s *stubEngine) Union(_, _ orb.Geometry) (orb.Geometry, error) {
	return s.union, s.unionErr
}

func (s *stubEngine) Area(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	return planar.Area(g)
}

// mockMetrics records metric calls for assertions.
type mockMetrics struct {
	mu                sync.Mutex
	anchorsProcessed  int
	anchorsFailed     int
	invalidFootprints int
	pairsFound        int
	groupsFound       int
	footprintsLoaded  int
	storageOps        int
}

func (m *mockMetrics) IncAnchorsProcessed(_ string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.anchorsProcessed++
	} else {
		m.anchorsFailed++
	}
}

func (m *mockMetrics) IncInvalidFootprints() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidFootprints++
}

func (m *mockMetrics) IncPairsFound(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairsFound += count
}

func (m *mockMetrics) IncGroupsFound(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groupsFound += count
}

func (m *mockMetrics) ObserveSelectionDuration(_ string, _ time.Duration) {}

func (m *mockMetrics) SetFootprintsLoaded(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.footprintsLoaded = count
}

func (m *mockMetrics) IncStorageOperations(_ string, _ bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storageOps++
}

func (m *mockMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}

// mockStorage implements output.ObjectStorage over an in-memory file map.
type mockStorage struct {
	objects map[string][]byte
	listErr error
	readErr error
}

func (m *mockStorage) List(_ context.Context) ([]output.StorageObject, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	objects := make([]output.StorageObject, 0, len(m.objects))
	for key, data := range m.objects {
		objects = append(objects, output.StorageObject{Key: key, Size: int64(len(data))})
	}
	return objects, nil
}

func (m *mockStorage) Download(_ context.Context, _, _ string) error { return nil }

func (m *mockStorage) GetReader(_ context.Context, key string) (io.ReadCloser, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

// mockParser implements output.FootprintParser with canned results.
type mockParser struct {
	footprints []domain.Footprint
	skipped    int
	err        error
}

func (m *mockParser) Parse(_ io.Reader) ([]domain.Footprint, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.footprints, m.skipped, nil
}
