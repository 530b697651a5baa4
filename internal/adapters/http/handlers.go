package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mfriedel/looksel/internal/adapters/export"
	"github.com/mfriedel/looksel/internal/adapters/ingest"
	"github.com/mfriedel/looksel/internal/domain"
)

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":             boolToStatus(details.Healthy),
		"ready":              details.Ready,
		"footprints_loaded":  details.FootprintsLoaded,
		"invalid_footprints": details.InvalidFootprints,
		"components":         details.Components,
	})
}

// handleLiveness returns liveness status.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
}

// handleReadiness returns readiness status.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
}

// handleFootprints returns the stored footprint catalog as GeoJSON.
func (s *Server) handleFootprints(w http.ResponseWriter, r *http.Request) {
	footprints, err := s.store.Footprints(r.Context())
	if err != nil {
		s.handleStoreError(w, err)
		return
	}

	data, err := ingest.MarshalFootprints(footprints)
	if err != nil {
		s.logger.Error("encoding footprints", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to encode footprints")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

// handlePairs returns the stored stereo pairs. The default representation
// is a GeoJSON feature collection carrying the merged footprint
// attributes; ?format=ids returns the distinct scene id list instead.
func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.store.Pairs(r.Context())
	if err != nil {
		s.handleStoreError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "ids" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := export.WritePairSceneIDs(w, pairs); err != nil {
			s.logger.Error("writing pair scene ids", "error", err)
		}
		return
	}

	pool, err := s.store.FootprintsByIDs(r.Context(), pairSceneIDs(pairs))
	if err != nil {
		s.handleStoreError(w, err)
		return
	}

	rows := s.assembler.PairRows(pairs, pool)
	w.Header().Set("Content-Type", "application/geo+json")
	if err := export.NewGeoJSONWriter().Write(w, rows); err != nil {
		s.logger.Error("writing pair collection", "error", err)
	}
}

// handleGroups returns the stored multilook groups as GeoJSON, or the
// distinct scene id list with ?format=ids.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.Groups(r.Context())
	if err != nil {
		s.handleStoreError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "ids" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := export.WriteSceneIDs(w, groups); err != nil {
			s.logger.Error("writing group scene ids", "error", err)
		}
		return
	}

	rows := s.assembler.GroupRows(groups)
	w.Header().Set("Content-Type", "application/geo+json")
	if err := export.NewGeoJSONWriter().Write(w, rows); err != nil {
		s.logger.Error("writing group collection", "error", err)
	}
}

// pairSceneIDs collects the distinct scene ids referenced by the pairs,
// in first-seen order.
func pairSceneIDs(pairs []domain.OverlapPair) []string {
	seen := make(map[string]struct{}, len(pairs)*2)
	ids := make([]string, 0, len(pairs)*2)
	for i := range pairs {
		for _, id := range []string{pairs[i].ID1, pairs[i].ID2} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// handleStoreError maps store failures to HTTP status codes.
func (s *Server) handleStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		s.writeError(w, http.StatusServiceUnavailable, "Scene store unavailable")
		return
	}

	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) {
		s.logger.Error("store error", "operation", storeErr.Operation, "table", storeErr.Table, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Scene store query failed")
		return
	}

	s.logger.Error("store error", "error", err)
	s.writeError(w, http.StatusInternalServerError, "Scene store query failed")
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func boolToStatus(b bool) string {
	if b {
		return "ok"
	}
	return "unhealthy"
}
