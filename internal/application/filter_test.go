package application

import (
	"testing"
	"time"

	"github.com/mfriedel/looksel/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2020, 6, d, 0, 0, 0, 0, time.UTC)
}

func testPool() []domain.Footprint {
	return []domain.Footprint{
		{ID: "a", StripID: "s1", Instrument: "PS2", Acquired: day(10), Geometry: square(0, 0, 10)},
		{ID: "b", StripID: "s1", Instrument: "PS2", Acquired: day(12), Geometry: square(1, 0, 10)},
		{ID: "c", StripID: "s2", Instrument: "PS2", Acquired: day(13), Geometry: square(2, 0, 10)},
		{ID: "d", StripID: "s1", Instrument: "PSB.SD", Acquired: day(14), Geometry: square(3, 0, 10)},
		{ID: "e", StripID: "s2", Instrument: "PSB.SD", Acquired: day(25), Geometry: square(4, 0, 10)},
	}
}

func idsOf(footprints []domain.Footprint) []string {
	ids := make([]string, len(footprints))
	for i, fp := range footprints {
		ids[i] = fp.ID
	}
	return ids
}

func TestFilterCandidates(t *testing.T) {
	pool := testPool()
	anchor := &pool[0]

	tests := []struct {
		name string
		opts FilterOptions
		want []string
	}{
		{
			name: "no predicates excludes only the anchor",
			opts: FilterOptions{},
			want: []string{"b", "c", "d", "e"},
		},
		{
			name: "within strip",
			opts: FilterOptions{WithinStrip: true},
			want: []string{"b", "d"},
		},
		{
			name: "within instrument",
			opts: FilterOptions{WithinInstrument: true},
			want: []string{"b", "c"},
		},
		{
			name: "date window",
			opts: FilterOptions{DateWindow: domain.NewDateWindow(anchor.Acquired, 5)},
			want: []string{"b", "c", "d"},
		},
		{
			name: "all predicates AND together",
			opts: FilterOptions{
				WithinStrip:      true,
				WithinInstrument: true,
				DateWindow:       domain.NewDateWindow(anchor.Acquired, 5),
			},
			want: []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idsOf(FilterCandidates(anchor, pool, tt.opts))
			if len(got) != len(tt.want) {
				t.Fatalf("FilterCandidates() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("FilterCandidates() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFilterCandidatesDateWindowIsOpen(t *testing.T) {
	anchor := domain.Footprint{ID: "a", Acquired: day(10), Geometry: square(0, 0, 10)}
	pool := []domain.Footprint{
		anchor,
		{ID: "boundary", Acquired: day(15), Geometry: square(1, 0, 10)}, // exactly acquired+5d
		{ID: "inside", Acquired: day(14), Geometry: square(2, 0, 10)},
	}

	got := idsOf(FilterCandidates(&anchor, pool, FilterOptions{
		DateWindow: domain.NewDateWindow(anchor.Acquired, 5),
	}))
	if len(got) != 1 || got[0] != "inside" {
		t.Errorf("open interval should exclude the boundary: got %v", got)
	}
}

func TestFilterCandidatesEmptyPool(t *testing.T) {
	anchor := domain.Footprint{ID: "a"}

	if got := FilterCandidates(&anchor, nil, FilterOptions{}); len(got) != 0 {
		t.Errorf("empty pool should filter to empty, got %v", got)
	}

	// A pool containing only the anchor is also empty after filtering.
	if got := FilterCandidates(&anchor, []domain.Footprint{anchor}, FilterOptions{}); len(got) != 0 {
		t.Errorf("anchor-only pool should filter to empty, got %v", got)
	}
}

func TestFilterCandidatesSkipsMissingGeometry(t *testing.T) {
	anchor := domain.Footprint{ID: "a", Geometry: square(0, 0, 10)}
	pool := []domain.Footprint{
		anchor,
		{ID: "no-geom"},
		{ID: "b", Geometry: square(1, 0, 10)},
	}

	got := idsOf(FilterCandidates(&anchor, pool, FilterOptions{}))
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("candidate without geometry should be excluded, got %v", got)
	}
}

func TestFilterCandidatesInstrumentMismatch(t *testing.T) {
	// Geometric overlap is irrelevant when the instrument differs.
	anchor := domain.Footprint{ID: "a", Instrument: "PS2", Geometry: square(0, 0, 10)}
	pool := []domain.Footprint{
		anchor,
		{ID: "b", Instrument: "PSB.SD", Geometry: square(0, 0, 10)},
	}

	got := FilterCandidates(&anchor, pool, FilterOptions{WithinInstrument: true})
	if len(got) != 0 {
		t.Errorf("candidate with different instrument should be excluded, got %v", idsOf(got))
	}
}
