package application

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/mfriedel/looksel/internal/domain"
	"github.com/mfriedel/looksel/internal/ports/output"
)

// MultilookService finds chains of three-or-more mutually overlapping
// scenes whose cumulative intersection stays above the area floor.
type MultilookService struct {
	expander *ChainExpander
	metrics  output.MetricsCollector
	logger   *slog.Logger
	workers  int
}

// NewMultilookService creates a multilook selection service.
func NewMultilookService(geom output.GeometryEngine, metrics output.MetricsCollector, logger *slog.Logger, workers int) *MultilookService {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &MultilookService{
		expander: NewChainExpander(geom, logger),
		metrics:  metrics,
		logger:   logger,
		workers:  workers,
	}
}

// SelectGroups expands a chain from every anchor in the pool and returns
// every valid intermediate group. Invalid anchors are skipped and counted.
// Output is ordered by anchor id, then chain length ascending, so a
// group's shorter prefixes always precede it.
func (s *MultilookService) SelectGroups(ctx context.Context, pool []domain.Footprint, params domain.SelectionParams) ([]domain.MultilookGroup, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	perAnchor := make([][]domain.MultilookGroup, len(pool))

	err := runAnchorPool(ctx, s.workers, len(pool), func(ctx context.Context, i int) error {
		anchor := &pool[i]

		if err := anchor.Validate(); err != nil {
			s.logger.Warn("skipping invalid anchor footprint", "id", anchor.ID, "error", err)
			s.metrics.IncInvalidFootprints()
			s.metrics.IncAnchorsProcessed("multilook", false)
			return nil
		}

		candidates := FilterCandidates(anchor, pool, FilterOptions{
			WithinStrip:      params.WithinStrip,
			WithinInstrument: params.WithinInstrument,
			DateWindow:       params.DateWindowFor(anchor),
		})
		if len(candidates) == 0 {
			s.metrics.IncAnchorsProcessed("multilook", true)
			return nil
		}

		groups, err := s.expander.Expand(ctx, anchor, candidates, params.MinPairs, params.MinArea, params.Rerank)
		if err != nil {
			s.metrics.IncAnchorsProcessed("multilook", false)
			return err
		}

		perAnchor[i] = groups
		s.metrics.IncAnchorsProcessed("multilook", true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var results []domain.MultilookGroup
	for _, groups := range perAnchor {
		results = append(results, groups...)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].AnchorID() != results[j].AnchorID() {
			return results[i].AnchorID() < results[j].AnchorID()
		}
		return results[i].PairCount < results[j].PairCount
	})

	s.metrics.IncGroupsFound(len(results))
	s.metrics.ObserveSelectionDuration("multilook", time.Since(start))
	s.logger.Info("multilook selection completed",
		"footprints", len(pool),
		"groups", len(results),
		"min_pairs", params.MinPairs,
		"min_area", params.MinArea,
		"duration", time.Since(start),
	)

	return results, nil
}
