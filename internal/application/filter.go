// Package application contains the application services.
package application

import (
	"github.com/mfriedel/looksel/internal/domain"
)

// FilterOptions narrows a candidate pool around one anchor. All active
// predicates combine with logical AND.
type FilterOptions struct {
	WithinStrip      bool              // Keep only the anchor's strip
	WithinInstrument bool              // Keep only the anchor's sensor
	DateWindow       domain.DateWindow // Open interval; zero disables
}

// FilterCandidates returns the subset of pool that can plausibly pair with
// the anchor. The anchor itself is always excluded by id. An empty result
// means "no candidates", never an error.
func FilterCandidates(anchor *domain.Footprint, pool []domain.Footprint, opts FilterOptions) []domain.Footprint {
	candidates := make([]domain.Footprint, 0, len(pool))

	for i := range pool {
		c := &pool[i]
		if c.ID == anchor.ID {
			continue
		}
		if c.Geometry == nil {
			continue
		}
		if opts.WithinStrip && c.StripID != anchor.StripID {
			continue
		}
		if opts.WithinInstrument && c.Instrument != anchor.Instrument {
			continue
		}
		if !opts.DateWindow.IsZero() && !opts.DateWindow.Contains(c.Acquired) {
			continue
		}
		candidates = append(candidates, *c)
	}

	return candidates
}
