package application

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mfriedel/looksel/internal/domain"
	"github.com/mfriedel/looksel/internal/ports/output"
)

// DefaultWorkers bounds the per-anchor worker pool when unconfigured.
const DefaultWorkers = 4

// StereoService finds two-scene stereo pairs across a footprint pool.
// Each anchor is processed independently against an immutable pool
// snapshot, so anchors fan out over a bounded worker pool.
type StereoService struct {
	evaluator *OverlapEvaluator
	metrics   output.MetricsCollector
	logger    *slog.Logger
	workers   int
}

// NewStereoService creates a stereo selection service.
func NewStereoService(geom output.GeometryEngine, metrics output.MetricsCollector, logger *slog.Logger, workers int) *StereoService {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &StereoService{
		evaluator: NewOverlapEvaluator(geom, logger),
		metrics:   metrics,
		logger:    logger,
		workers:   workers,
	}
}

// SelectPairs runs filter, evaluate and gate for every anchor in the pool.
// Anchors with invalid records are skipped and counted, never fatal.
// Output ordering is deterministic: anchor id, then candidate id.
func (s *StereoService) SelectPairs(ctx context.Context, pool []domain.Footprint, params domain.SelectionParams) ([]domain.OverlapPair, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	perAnchor := make([][]domain.OverlapPair, len(pool))

	err := s.forEachAnchor(ctx, len(pool), func(ctx context.Context, i int) error {
		anchor := &pool[i]

		if err := anchor.Validate(); err != nil {
			s.logger.Warn("skipping invalid anchor footprint", "id", anchor.ID, "error", err)
			s.metrics.IncInvalidFootprints()
			s.metrics.IncAnchorsProcessed("stereo", false)
			return nil
		}

		pairs, err := s.anchorPairs(anchor, pool, params)
		if err != nil {
			s.metrics.IncAnchorsProcessed("stereo", false)
			return err
		}

		perAnchor[i] = pairs
		s.metrics.IncAnchorsProcessed("stereo", true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var results []domain.OverlapPair
	for _, pairs := range perAnchor {
		results = append(results, pairs...)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].ID1 != results[j].ID1 {
			return results[i].ID1 < results[j].ID1
		}
		return results[i].ID2 < results[j].ID2
	})

	s.metrics.IncPairsFound(len(results))
	s.metrics.ObserveSelectionDuration("stereo", time.Since(start))
	s.logger.Info("stereo selection completed",
		"footprints", len(pool),
		"pairs", len(results),
		"duration", time.Since(start),
	)

	return results, nil
}

// anchorPairs runs the per-anchor pipeline: candidate filter, pairwise
// evaluation, threshold gate. The admitted date window is retained on each
// surviving pair for audit.
func (s *StereoService) anchorPairs(anchor *domain.Footprint, pool []domain.Footprint, params domain.SelectionParams) ([]domain.OverlapPair, error) {
	window := params.DateWindowFor(anchor)

	candidates := FilterCandidates(anchor, pool, FilterOptions{
		WithinStrip:      params.WithinStrip,
		WithinInstrument: params.WithinInstrument,
		DateWindow:       window,
	})
	if len(candidates) == 0 {
		return nil, nil
	}

	evaluated, err := s.evaluator.Evaluate(anchor, candidates, params.MetricKind)
	if err != nil {
		return nil, err
	}

	gated := GatePairs(evaluated, params.MinMetric)
	if len(gated) == 0 {
		return nil, nil
	}

	pairs := make([]domain.OverlapPair, 0, len(gated))
	for _, p := range gated {
		p.DateWindow = window
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].ID2 < pairs[j].ID2 })

	return pairs, nil
}

// forEachAnchor fans n anchor indices out over the worker pool. The first
// error cancels the remaining work; results produced after cancellation
// are discarded by the callers writing into per-index slots.
func (s *StereoService) forEachAnchor(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	return runAnchorPool(ctx, s.workers, n, fn)
}

// runAnchorPool is the shared bounded worker pool for per-anchor work.
func runAnchorPool(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	indices := make(chan int)
	errCh := make(chan error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if err := fn(ctx, i); err != nil {
					errCh <- err
					cancel()
					return
				}
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case indices <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return err
	}
	// Only a parent cancellation can still be pending here; worker errors
	// were drained above.
	return ctx.Err()
}
