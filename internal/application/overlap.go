package application

import (
	"errors"
	"log/slog"
	"math"

	"github.com/mfriedel/looksel/internal/domain"
	"github.com/mfriedel/looksel/internal/ports/output"
)

// OverlapEvaluator computes pairwise intersections between an anchor and
// its filtered candidates.
type OverlapEvaluator struct {
	geom   output.GeometryEngine
	logger *slog.Logger
}

// NewOverlapEvaluator creates an evaluator over the given geometry engine.
func NewOverlapEvaluator(geom output.GeometryEngine, logger *slog.Logger) *OverlapEvaluator {
	return &OverlapEvaluator{geom: geom, logger: logger}
}

// Evaluate intersects the anchor with every candidate and returns pairs
// keyed by candidate id. Non-intersecting candidates are omitted entirely.
// A degenerate zero-area union under the percent metric drops the pair
// rather than failing the run.
func (e *OverlapEvaluator) Evaluate(anchor *domain.Footprint, candidates []domain.Footprint, kind domain.MetricKind) (map[string]domain.OverlapPair, error) {
	pairs := make(map[string]domain.OverlapPair, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		if !e.geom.Intersects(anchor.Geometry, c.Geometry) {
			continue
		}

		inter, err := e.geom.Intersection(anchor.Geometry, c.Geometry)
		if err != nil {
			return nil, &domain.SelectionError{AnchorID: anchor.ID, Stage: "evaluate", Err: err}
		}
		if inter == nil {
			continue
		}
		interArea := e.geom.Area(inter)
		if interArea == 0 {
			continue
		}

		metric, err := e.metricFor(anchor, c, interArea, kind)
		if err != nil {
			if errors.Is(err, domain.ErrDegenerateOverlap) {
				e.logger.Debug("dropping pair with degenerate union", "anchor", anchor.ID, "candidate", c.ID)
				continue
			}
			return nil, err
		}

		pairs[c.ID] = domain.OverlapPair{
			ID1:        anchor.ID,
			ID2:        c.ID,
			Geometry:   inter,
			Metric:     metric,
			MetricKind: kind,
		}
	}

	return pairs, nil
}

// metricFor computes the configured overlap measure for one intersection.
func (e *OverlapEvaluator) metricFor(anchor, candidate *domain.Footprint, interArea float64, kind domain.MetricKind) (float64, error) {
	switch kind {
	case domain.MetricArea:
		return interArea, nil
	case domain.MetricPercent:
		union, err := e.geom.Union(anchor.Geometry, candidate.Geometry)
		if err != nil {
			return 0, &domain.SelectionError{AnchorID: anchor.ID, Stage: "evaluate", Err: err}
		}
		unionArea := e.geom.Area(union)
		if unionArea == 0 {
			return 0, domain.ErrDegenerateOverlap
		}
		return OverlapPercent(interArea, unionArea), nil
	default:
		return 0, &domain.ConfigError{Field: "metric_kind", Message: "unsupported metric kind " + string(kind)}
	}
}

// OverlapPercent converts an intersection/union area pair to the percent
// metric: the ratio rounded to four decimal places, times 100. Identical
// footprints therefore score exactly 100.
func OverlapPercent(interArea, unionArea float64) float64 {
	return math.Round(interArea/unionArea*10000) / 10000 * 100
}

// GatePairs removes entries whose metric is at or below min. The bound is
// strict, so a zero threshold still excludes exact-zero overlaps.
func GatePairs(pairs map[string]domain.OverlapPair, min float64) map[string]domain.OverlapPair {
	kept := make(map[string]domain.OverlapPair, len(pairs))
	for id, p := range pairs {
		if p.Metric > min {
			kept[id] = p
		}
	}
	return kept
}
