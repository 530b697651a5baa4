package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseMetricKind(t *testing.T) {
	tests := []struct {
		input   string
		want    MetricKind
		wantErr bool
	}{
		{"area", MetricArea, false},
		{"percent", MetricPercent, false},
		{"", "", true},
		{"AREA", "", true},
		{"overlap", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMetricKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMetricKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMetricKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error should wrap ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestDateWindow(t *testing.T) {
	acquired := time.Date(2020, 6, 6, 10, 30, 0, 0, time.UTC)
	w := NewDateWindow(acquired, 5)

	if want := "2020-06-01 - 2020-06-11"; w.String() != want {
		t.Errorf("String() = %q, want %q", w.String(), want)
	}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"inside", acquired.AddDate(0, 0, 2), true},
		{"same instant", acquired, true},
		{"lower bound is open", w.Min, false},
		{"upper bound is open", w.Max, false},
		{"before window", acquired.AddDate(0, 0, -6), false},
		{"after window", acquired.AddDate(0, 0, 6), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}

	var zero DateWindow
	if !zero.IsZero() {
		t.Error("zero window should report IsZero")
	}
	if zero.Contains(acquired) {
		t.Error("zero window should contain nothing")
	}
}

func TestOverlapPairPairname(t *testing.T) {
	p := OverlapPair{ID1: "a", ID2: "b"}
	if got := p.Pairname(); got != "a-b" {
		t.Errorf("Pairname() = %q, want a-b", got)
	}
}

func TestNewMultilookGroup(t *testing.T) {
	ids := []string{"a", "b", "c"}
	g := NewMultilookGroup(ids, unitSquare(0, 0, 2), 4)

	if g.Pairname != "a-b-c" {
		t.Errorf("Pairname = %q, want a-b-c", g.Pairname)
	}
	if g.PairCount != 3 {
		t.Errorf("PairCount = %d, want 3", g.PairCount)
	}
	if g.AnchorID() != "a" {
		t.Errorf("AnchorID() = %q, want a", g.AnchorID())
	}
	if g.Area != 4 {
		t.Errorf("Area = %v, want 4", g.Area)
	}

	// The chain slice must be copied, not aliased.
	ids[1] = "mutated"
	if g.PairIDs[1] != "b" {
		t.Error("NewMultilookGroup must copy the id slice")
	}
}

func TestSplitPairname(t *testing.T) {
	got := SplitPairname("a-b-c")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("SplitPairname(a-b-c) = %v", got)
	}
	if SplitPairname("") != nil {
		t.Error("SplitPairname(empty) should be nil")
	}
}

func TestSelectionParamsValidate(t *testing.T) {
	valid := SelectionParams{MetricKind: MetricArea, MinPairs: 3, MinArea: 1000}

	tests := []struct {
		name    string
		mutate  func(*SelectionParams)
		wantErr bool
	}{
		{"valid", func(*SelectionParams) {}, false},
		{"percent kind", func(p *SelectionParams) { p.MetricKind = MetricPercent }, false},
		{"bad metric kind", func(p *SelectionParams) { p.MetricKind = "ratio" }, true},
		{"zero min pairs", func(p *SelectionParams) { p.MinPairs = 0 }, true},
		{"negative min pairs", func(p *SelectionParams) { p.MinPairs = -2 }, true},
		{"negative min metric", func(p *SelectionParams) { p.MinMetric = -1 }, true},
		{"negative min area", func(p *SelectionParams) { p.MinArea = -1 }, true},
		{"negative days", func(p *SelectionParams) { p.DaysThreshold = -5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var cfgErr *ConfigError
			if err != nil && !errors.As(err, &cfgErr) {
				t.Errorf("error should be a *ConfigError, got %T", err)
			}
		})
	}
}

func TestSelectionParamsDateWindowFor(t *testing.T) {
	anchor := Footprint{ID: "a", Acquired: time.Date(2020, 6, 6, 0, 0, 0, 0, time.UTC)}

	p := SelectionParams{MetricKind: MetricArea, MinPairs: 2, DaysThreshold: 10}
	w := p.DateWindowFor(&anchor)
	if w.IsZero() {
		t.Fatal("expected a window when days threshold set")
	}
	if !w.Contains(anchor.Acquired.AddDate(0, 0, 9)) {
		t.Error("window should contain acquired+9d")
	}

	p.DaysThreshold = 0
	if !p.DateWindowFor(&anchor).IsZero() {
		t.Error("expected zero window when days threshold unset")
	}
}

func TestParseDateWindow(t *testing.T) {
	w := NewDateWindow(time.Date(2020, 6, 6, 0, 0, 0, 0, time.UTC), 5)

	parsed, err := ParseDateWindow(w.String())
	if err != nil {
		t.Fatalf("ParseDateWindow() error = %v", err)
	}
	if parsed.String() != w.String() {
		t.Errorf("round trip = %q, want %q", parsed.String(), w.String())
	}

	for _, bad := range []string{"", "2020-06-01", "2020-06-01 - nope"} {
		if _, err := ParseDateWindow(bad); err == nil {
			t.Errorf("ParseDateWindow(%q) should fail", bad)
		}
	}
}
