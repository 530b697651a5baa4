package application

import (
	"testing"

	"github.com/mfriedel/looksel/internal/domain"
)

func TestPairRowsMergesBothFootprints(t *testing.T) {
	a := NewAssembler(DefaultSchema())
	pool := []domain.Footprint{
		{ID: "a", StripID: "s1", Instrument: "PS2", Acquired: day(10), Geometry: square(0, 0, 10),
			Properties: map[string]interface{}{"cloud_cover": 0.1}},
		{ID: "b", StripID: "s1", Instrument: "PS2", Acquired: day(12), Geometry: square(1, 0, 10),
			Properties: map[string]interface{}{"cloud_cover": 0.2}},
	}
	pairs := []domain.OverlapPair{{
		ID1:        "a",
		ID2:        "b",
		Geometry:   rect(1, 0, 10, 10),
		Metric:     90,
		MetricKind: domain.MetricArea,
		DateWindow: domain.NewDateWindow(day(10), 5),
	}}

	rows := a.PairRows(pairs, pool)
	if len(rows) != 1 {
		t.Fatalf("PairRows() returned %d rows, want 1", len(rows))
	}
	cols := rows[0].Columns

	checks := map[string]interface{}{
		"pair_id":      "a-b",
		"ovlp_area":    90.0,
		"days_window":  "2020-06-05 - 2020-06-15",
		"id":           "a",
		"id2":          "b",
		"strip_id":     "s1",
		"strip_id2":    "s1",
		"instrument":   "PS2",
		"instrument2":  "PS2",
		"acquired":     "2020-06-10T00:00:00Z",
		"acquired2":    "2020-06-12T00:00:00Z",
		"cloud_cover":  0.1,
		"cloud_cover2": 0.2,
	}
	for col, want := range checks {
		if got, ok := cols[col]; !ok || got != want {
			t.Errorf("column %q = %v (present=%v), want %v", col, got, ok, want)
		}
	}
	if rows[0].Geometry == nil {
		t.Error("row must carry the overlap geometry")
	}
}

func TestPairRowsPercentColumn(t *testing.T) {
	a := NewAssembler(DefaultSchema())
	pairs := []domain.OverlapPair{{
		ID1: "a", ID2: "b", Metric: 33.33, MetricKind: domain.MetricPercent,
	}}

	rows := a.PairRows(pairs, nil)
	cols := rows[0].Columns
	if got := cols["ovlp_perc"]; got != 33.33 {
		t.Errorf("ovlp_perc = %v, want 33.33", got)
	}
	if _, ok := cols["ovlp_area"]; ok {
		t.Error("area column must be absent under the percent metric")
	}
	if _, ok := cols["days_window"]; ok {
		t.Error("zero date window must not emit a window column")
	}
}

func TestPairRowsSkipsBlankAttributes(t *testing.T) {
	a := NewAssembler(DefaultSchema())
	pool := []domain.Footprint{
		{ID: "a", Geometry: square(0, 0, 10)},
		{ID: "b", Geometry: square(1, 0, 10)},
	}
	pairs := []domain.OverlapPair{{ID1: "a", ID2: "b", Metric: 90, MetricKind: domain.MetricArea}}

	cols := a.PairRows(pairs, pool)[0].Columns
	for _, col := range []string{"strip_id", "strip_id2", "instrument", "instrument2", "acquired", "acquired2"} {
		if _, ok := cols[col]; ok {
			t.Errorf("blank attribute must not emit column %q", col)
		}
	}
}

func TestGroupRows(t *testing.T) {
	a := NewAssembler(DefaultSchema())
	groups := []domain.MultilookGroup{
		domain.NewMultilookGroup([]string{"a", "b", "c"}, rect(1, 1, 10, 10), 81),
	}

	rows := a.GroupRows(groups)
	if len(rows) != 1 {
		t.Fatalf("GroupRows() returned %d rows, want 1", len(rows))
	}
	cols := rows[0].Columns
	if cols["id"] != "a" || cols["pair_id"] != "a-b-c" {
		t.Errorf("id/pair_id = %v/%v, want a/a-b-c", cols["id"], cols["pair_id"])
	}
	if cols["ovlp_area"] != 81.0 || cols["pair_count"] != 3 {
		t.Errorf("area/count = %v/%v, want 81/3", cols["ovlp_area"], cols["pair_count"])
	}
}

func TestSchemaMetricColumn(t *testing.T) {
	s := DefaultSchema()
	if got := s.MetricColumn(domain.MetricArea); got != "ovlp_area" {
		t.Errorf("MetricColumn(area) = %q", got)
	}
	if got := s.MetricColumn(domain.MetricPercent); got != "ovlp_perc" {
		t.Errorf("MetricColumn(percent) = %q", got)
	}
}
