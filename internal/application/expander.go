package application

import (
	"context"
	"log/slog"
	"sort"

	"github.com/paulmach/orb"

	"github.com/mfriedel/looksel/internal/domain"
	"github.com/mfriedel/looksel/internal/ports/output"
)

// ChainExpander grows a multilook group one scene at a time from an anchor
// footprint, folding each candidate into a cumulative intersection.
type ChainExpander struct {
	geom   output.GeometryEngine
	logger *slog.Logger
}

// NewChainExpander creates a chain expander over the given geometry engine.
func NewChainExpander(geom output.GeometryEngine, logger *slog.Logger) *ChainExpander {
	return &ChainExpander{geom: geom, logger: logger}
}

// candidateOverlap pairs a candidate with its overlap area against a
// reference geometry.
type candidateOverlap struct {
	footprint domain.Footprint
	area      float64
}

// Expand produces every valid intermediate chain rooted at the anchor.
//
// Candidates are ranked once by intersection area with the anchor,
// descending, with candidate id ascending as the deterministic tie-break.
// The ranking is not recomputed against the shrinking cumulative
// intersection unless rerank is set; the fixed order can miss longer
// chains but matches the ranking the candidates were admitted under.
//
// The fold stops, rather than skipping ahead, the first time a candidate's
// intersection with the running overlap is empty or its area drops to
// minArea or below: every later candidate overlapped the anchor less, so
// the cumulative intersection can only keep shrinking. A group is emitted
// at every prefix length >= minPairs. No matches is an empty result, not
// an error.
func (x *ChainExpander) Expand(ctx context.Context, anchor *domain.Footprint, candidates []domain.Footprint, minPairs int, minArea float64, rerank bool) ([]domain.MultilookGroup, error) {
	if err := anchor.Validate(); err != nil {
		return nil, err
	}

	ranked, err := x.rankAgainst(anchor.Geometry, anchor.ID, candidates, minArea)
	if err != nil {
		return nil, &domain.SelectionError{AnchorID: anchor.ID, Stage: "expand", Err: err}
	}
	if len(ranked) == 0 {
		return nil, nil
	}

	var groups []domain.MultilookGroup
	prev := anchor.Geometry
	pairIDs := []string{anchor.ID}

	for len(ranked) > 0 {
		// Partial chains for a cancelled anchor are discarded wholesale.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := ranked[0]
		ranked = ranked[1:]

		sub, err := x.geom.Intersection(prev, next.footprint.Geometry)
		if err != nil {
			return nil, &domain.SelectionError{AnchorID: anchor.ID, Stage: "expand", Err: err}
		}
		if sub == nil {
			x.logger.Debug("chain intersection empty, stopping expansion", "anchor", anchor.ID, "candidate", next.footprint.ID)
			break
		}
		subArea := x.geom.Area(sub)
		if subArea <= minArea {
			x.logger.Debug("chain intersection below area floor, stopping expansion",
				"anchor", anchor.ID, "candidate", next.footprint.ID, "area", subArea)
			break
		}

		pairIDs = append(pairIDs, next.footprint.ID)
		prev = sub

		if len(pairIDs) >= minPairs {
			groups = append(groups, domain.NewMultilookGroup(pairIDs, prev, subArea))
		}

		if rerank && len(ranked) > 0 {
			remaining := make([]domain.Footprint, len(ranked))
			for i := range ranked {
				remaining[i] = ranked[i].footprint
			}
			ranked, err = x.rankAgainst(prev, anchor.ID, remaining, minArea)
			if err != nil {
				return nil, &domain.SelectionError{AnchorID: anchor.ID, Stage: "rerank", Err: err}
			}
		}
	}

	return groups, nil
}

// rankAgainst intersects every candidate with the reference geometry,
// drops those whose overlap area is at or below the floor, and sorts the
// survivors by area descending, id ascending on ties.
func (x *ChainExpander) rankAgainst(ref orb.Geometry, anchorID string, candidates []domain.Footprint, minArea float64) ([]candidateOverlap, error) {
	ranked := make([]candidateOverlap, 0, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		if c.ID == anchorID {
			continue
		}
		if !x.geom.Intersects(ref, c.Geometry) {
			continue
		}
		inter, err := x.geom.Intersection(ref, c.Geometry)
		if err != nil {
			return nil, err
		}
		if inter == nil {
			continue
		}
		area := x.geom.Area(inter)
		if area <= minArea {
			continue
		}
		ranked = append(ranked, candidateOverlap{footprint: *c, area: area})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].area != ranked[j].area {
			return ranked[i].area > ranked[j].area
		}
		return ranked[i].footprint.ID < ranked[j].footprint.ID
	})

	return ranked, nil
}
