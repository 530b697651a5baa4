package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/mfriedel/looksel/internal/application"
	"github.com/mfriedel/looksel/internal/config"
	"github.com/mfriedel/looksel/internal/domain"
	"github.com/mfriedel/looksel/internal/ports/output"
)

// stubStore implements output.SceneStore with canned data.
type stubStore struct {
	footprints []domain.Footprint
	pairs      []domain.OverlapPair
	groups     []domain.MultilookGroup
	err        error
}

func (s *stubStore) Migrate(context.Context) error { return nil }

func (s *stubStore) InsertFootprints(context.Context, []domain.Footprint) (int, error) {
	return 0, nil
}

func (s *stubStore) Footprints(context.Context) ([]domain.Footprint, error) {
	return s.footprints, s.err
}

func (s *stubStore) FootprintsByIDs(_ context.Context, ids []string) ([]domain.Footprint, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Footprint
	for i := range s.footprints {
		for _, id := range ids {
			if s.footprints[i].ID == id {
				out = append(out, s.footprints[i])
			}
		}
	}
	return out, nil
}

func (s *stubStore) InsertPairs(context.Context, []domain.OverlapPair) (int, error) { return 0, nil }

func (s *stubStore) InsertGroups(context.Context, []domain.MultilookGroup) (int, error) {
	return 0, nil
}

func (s *stubStore) Pairs(context.Context) ([]domain.OverlapPair, error) { return s.pairs, s.err }

func (s *stubStore) Groups(context.Context) ([]domain.MultilookGroup, error) {
	return s.groups, s.err
}

func (s *stubStore) Close() error { return nil }

func testPolygon() orb.Polygon {
	return orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
}

func newTestServer(t *testing.T, store output.SceneStore) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pool := application.NewFootprintPool(nil, nil, &output.NoOpMetrics{}, logger)
	health := application.NewHealthService(pool)
	assembler := application.NewAssembler(application.DefaultSchema())

	return NewServer(
		config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		store,
		health,
		assembler,
		logger,
	)
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &stubStore{})

	rr := doRequest(t, s, http.MethodGet, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rr.Code, http.StatusOK)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v; want ok", body["status"])
	}
	if body["ready"] != true {
		t.Errorf("ready = %v; want true", body["ready"])
	}
}

func TestHandleLivenessAndReadiness(t *testing.T) {
	s := newTestServer(t, &stubStore{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		rr := doRequest(t, s, http.MethodGet, path)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d; want %d", path, rr.Code, http.StatusOK)
		}
	}
}

func TestHandlePairs(t *testing.T) {
	store := &stubStore{
		footprints: []domain.Footprint{
			{ID: "scene-a", StripID: "strip-1", Geometry: testPolygon()},
			{ID: "scene-b", StripID: "strip-1", Geometry: testPolygon()},
		},
		pairs: []domain.OverlapPair{
			{
				ID1:        "scene-a",
				ID2:        "scene-b",
				Geometry:   testPolygon(),
				Metric:     90,
				MetricKind: domain.MetricArea,
			},
		},
	}
	s := newTestServer(t, store)

	rr := doRequest(t, s, http.MethodGet, "/api/v1/pairs")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("Content-Type = %q; want application/geo+json", ct)
	}

	var fc struct {
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decoding feature collection: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("features = %d; want 1", len(fc.Features))
	}

	props := fc.Features[0].Properties
	if props["pair_id"] != "scene-a-scene-b" {
		t.Errorf("pair_id = %v; want scene-a-scene-b", props["pair_id"])
	}
	if props["id"] != "scene-a" || props["id2"] != "scene-b" {
		t.Errorf("ids = %v/%v; want scene-a/scene-b", props["id"], props["id2"])
	}
	if props["ovlp_area"] != 90.0 {
		t.Errorf("ovlp_area = %v; want 90", props["ovlp_area"])
	}
}

func TestHandlePairsIDFormat(t *testing.T) {
	store := &stubStore{
		pairs: []domain.OverlapPair{
			{ID1: "scene-b", ID2: "scene-a", MetricKind: domain.MetricArea},
		},
	}
	s := newTestServer(t, store)

	rr := doRequest(t, s, http.MethodGet, "/api/v1/pairs?format=ids")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rr.Code, http.StatusOK)
	}

	got := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	want := []string{"scene-a", "scene-b"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ids = %v; want %v", got, want)
	}
}

func TestHandleGroups(t *testing.T) {
	group := domain.NewMultilookGroup([]string{"scene-a", "scene-b", "scene-c"}, testPolygon(), 81)
	s := newTestServer(t, &stubStore{groups: []domain.MultilookGroup{group}})

	rr := doRequest(t, s, http.MethodGet, "/api/v1/groups")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rr.Code, http.StatusOK)
	}

	var fc struct {
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decoding feature collection: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("features = %d; want 1", len(fc.Features))
	}

	props := fc.Features[0].Properties
	if props["pair_id"] != "scene-a-scene-b-scene-c" {
		t.Errorf("pair_id = %v; want scene-a-scene-b-scene-c", props["pair_id"])
	}
	if props["pair_count"] != 3.0 {
		t.Errorf("pair_count = %v; want 3", props["pair_count"])
	}
}

func TestHandleGroupsIDFormat(t *testing.T) {
	group := domain.NewMultilookGroup([]string{"scene-c", "scene-a"}, testPolygon(), 50)
	s := newTestServer(t, &stubStore{groups: []domain.MultilookGroup{group}})

	rr := doRequest(t, s, http.MethodGet, "/api/v1/groups?format=ids")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rr.Code, http.StatusOK)
	}

	got := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	want := []string{"scene-a", "scene-c"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ids = %v; want %v", got, want)
	}
}

func TestHandleFootprints(t *testing.T) {
	store := &stubStore{
		footprints: []domain.Footprint{
			{ID: "scene-a", Geometry: testPolygon()},
		},
	}
	s := newTestServer(t, store)

	rr := doRequest(t, s, http.MethodGet, "/api/v1/footprints")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rr.Code, http.StatusOK)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decoding feature collection: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("type = %q; want FeatureCollection", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("features = %d; want 1", len(fc.Features))
	}
}

func TestStoreErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "unavailable store",
			err:        domain.ErrStoreUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "query failure",
			err:        &domain.StoreError{Operation: "query", Table: "stereo_pairs", Err: io.ErrUnexpectedEOF},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubStore{err: tt.err})

			rr := doRequest(t, s, http.MethodGet, "/api/v1/pairs")
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}
