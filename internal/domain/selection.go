package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// MetricKind selects how pairwise overlap is measured.
type MetricKind string

// Supported overlap metrics.
const (
	MetricArea    MetricKind = "area"    // Absolute intersection area in CRS units
	MetricPercent MetricKind = "percent" // Intersection area as percent of union area
)

// ParseMetricKind validates a metric kind string.
func ParseMetricKind(s string) (MetricKind, error) {
	switch MetricKind(s) {
	case MetricArea:
		return MetricArea, nil
	case MetricPercent:
		return MetricPercent, nil
	default:
		return "", &ConfigError{Field: "metric_kind", Message: fmt.Sprintf("unsupported metric kind %q", s)}
	}
}

// PairnameSeparator joins scene ids into a chain's natural key.
const PairnameSeparator = "-"

// DateWindowFormat is the layout used when stringifying date windows.
const DateWindowFormat = "2006-01-02"

// DateWindow is the symmetric interval [acquired-days, acquired+days] used
// to admit temporally close candidates.
type DateWindow struct {
	Min time.Time
	Max time.Time
}

// NewDateWindow builds the window around an acquisition time.
func NewDateWindow(acquired time.Time, days int) DateWindow {
	return DateWindow{
		Min: acquired.AddDate(0, 0, -days),
		Max: acquired.AddDate(0, 0, days),
	}
}

// Contains reports whether t falls strictly inside the open interval.
func (w DateWindow) Contains(t time.Time) bool {
	return t.After(w.Min) && t.Before(w.Max)
}

// IsZero reports whether the window is unset.
func (w DateWindow) IsZero() bool {
	return w.Min.IsZero() && w.Max.IsZero()
}

// String renders the window for audit columns, e.g. "2020-06-01 - 2020-06-11".
func (w DateWindow) String() string {
	return fmt.Sprintf("%s - %s", w.Min.Format(DateWindowFormat), w.Max.Format(DateWindowFormat))
}

// ParseDateWindow reverses String, recovering a window from its audit form.
func ParseDateWindow(s string) (DateWindow, error) {
	parts := strings.Split(s, " - ")
	if len(parts) != 2 {
		return DateWindow{}, fmt.Errorf("malformed date window %q", s)
	}
	min, err := time.Parse(DateWindowFormat, parts[0])
	if err != nil {
		return DateWindow{}, fmt.Errorf("malformed date window %q: %w", s, err)
	}
	max, err := time.Parse(DateWindowFormat, parts[1])
	if err != nil {
		return DateWindow{}, fmt.Errorf("malformed date window %q: %w", s, err)
	}
	return DateWindow{Min: min, Max: max}, nil
}

// OverlapPair is the result of intersecting two footprints that survived
// the configured thresholds.
type OverlapPair struct {
	ID1        string       // Anchor footprint id
	ID2        string       // Candidate footprint id
	Geometry   orb.Geometry // Intersection polygon
	Metric     float64      // Overlap measure per MetricKind
	MetricKind MetricKind   // How Metric was computed
	DateWindow DateWindow   // Window used to admit the pair (zero if unused)
}

// Pairname returns the pair's natural key, anchor first.
func (p *OverlapPair) Pairname() string {
	return p.ID1 + PairnameSeparator + p.ID2
}

// MultilookGroup is an ordered chain of footprints whose cumulative
// intersection still exceeds the area floor. Multiple groups may share an
// anchor at different chain lengths; callers deduplicate on Pairname.
type MultilookGroup struct {
	PairIDs   []string     // Chain order, anchor first
	Pairname  string       // PairIDs joined with the separator
	Geometry  orb.Geometry // Cumulative intersection after folding all ids
	Area      float64      // Area of Geometry in CRS units
	PairCount int          // len(PairIDs)
}

// NewMultilookGroup copies the chain and derives the pairname and count.
func NewMultilookGroup(pairIDs []string, geom orb.Geometry, area float64) MultilookGroup {
	ids := make([]string, len(pairIDs))
	copy(ids, pairIDs)
	return MultilookGroup{
		PairIDs:   ids,
		Pairname:  strings.Join(ids, PairnameSeparator),
		Geometry:  geom,
		Area:      area,
		PairCount: len(ids),
	}
}

// AnchorID returns the chain's anchor scene id.
func (g *MultilookGroup) AnchorID() string {
	if len(g.PairIDs) == 0 {
		return ""
	}
	return g.PairIDs[0]
}

// SplitPairname recovers the ordered scene ids from a pairname.
func SplitPairname(pairname string) []string {
	if pairname == "" {
		return nil
	}
	return strings.Split(pairname, PairnameSeparator)
}

// SelectionParams carries the run parameters for a selection pass. The
// zero value is not valid; use Validate before processing.
type SelectionParams struct {
	MetricKind       MetricKind // area or percent
	MinMetric        float64    // Strict lower bound for pair metrics
	MinArea          float64    // Area floor for multilook chains, CRS units
	MinPairs         int        // Minimum chain length before emitting
	WithinStrip      bool       // Restrict candidates to the anchor's strip
	WithinInstrument bool       // Restrict candidates to the anchor's sensor
	DaysThreshold    int        // Symmetric date window, 0 disables
	Rerank           bool       // Re-rank candidates against the shrinking intersection
}

// Validate fails fast on unusable parameters, before any processing.
func (p SelectionParams) Validate() error {
	if _, err := ParseMetricKind(string(p.MetricKind)); err != nil {
		return err
	}
	if p.MinPairs < 1 {
		return &ConfigError{Field: "min_pairs", Message: fmt.Sprintf("must be positive, got %d", p.MinPairs)}
	}
	if p.MinMetric < 0 {
		return &ConfigError{Field: "min_metric", Message: "must not be negative"}
	}
	if p.MinArea < 0 {
		return &ConfigError{Field: "min_area", Message: "must not be negative"}
	}
	if p.DaysThreshold < 0 {
		return &ConfigError{Field: "days_threshold", Message: "must not be negative"}
	}
	return nil
}

// DateWindowFor derives the anchor's admission window, or a zero window
// when no days threshold is configured.
func (p SelectionParams) DateWindowFor(anchor *Footprint) DateWindow {
	if p.DaysThreshold <= 0 {
		return DateWindow{}
	}
	return NewDateWindow(anchor.Acquired, p.DaysThreshold)
}
