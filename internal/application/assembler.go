package application

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/mfriedel/looksel/internal/domain"
)

// Schema names the output columns produced by the assembler. It is passed
// explicitly instead of living as ambient constants so exporters and
// stores agree on one immutable set of names.
type Schema struct {
	ID             string // Scene id column
	StripID        string // Strip id column
	Instrument     string // Instrument code column
	Acquired       string // Acquisition timestamp column
	PairID         string // Pair/chain natural key column
	OverlapArea    string // Area metric column
	OverlapPercent string // Percent metric column
	DaysWindow     string // Stringified date window column
	PairCount      string // Chain length column
	Suffix         string // Suffix for the second footprint's columns
}

// DefaultSchema returns the standard output column names.
func DefaultSchema() Schema {
	return Schema{
		ID:             "id",
		StripID:        "strip_id",
		Instrument:     "instrument",
		Acquired:       "acquired",
		PairID:         "pair_id",
		OverlapArea:    "ovlp_area",
		OverlapPercent: "ovlp_perc",
		DaysWindow:     "days_window",
		PairCount:      "pair_count",
		Suffix:         "2",
	}
}

// MetricColumn returns the column name carrying the configured metric.
func (s Schema) MetricColumn(kind domain.MetricKind) string {
	if kind == domain.MetricPercent {
		return s.OverlapPercent
	}
	return s.OverlapArea
}

// ResultRow is one flat output record: the overlap geometry plus named
// columns. Purely a formatting product; no filtering happens here.
type ResultRow struct {
	Geometry orb.Geometry
	Columns  map[string]interface{}
}

// Assembler normalizes pairs and groups into flat rows for persistence
// and export.
type Assembler struct {
	schema Schema
}

// NewAssembler creates an assembler with the given column schema.
func NewAssembler(schema Schema) *Assembler {
	return &Assembler{schema: schema}
}

// PairRows flattens stereo pairs into one row each, merging both
// footprints' attributes. The second footprint's columns carry the
// schema suffix so they never collide with the first's.
func (a *Assembler) PairRows(pairs []domain.OverlapPair, pool []domain.Footprint) []ResultRow {
	index := indexByID(pool)
	rows := make([]ResultRow, 0, len(pairs))

	for i := range pairs {
		p := &pairs[i]
		cols := map[string]interface{}{
			a.schema.PairID:                     p.Pairname(),
			a.schema.MetricColumn(p.MetricKind): p.Metric,
		}
		if !p.DateWindow.IsZero() {
			cols[a.schema.DaysWindow] = p.DateWindow.String()
		}

		if fp, ok := index[p.ID1]; ok {
			a.mergeFootprint(cols, fp, "")
		}
		if fp, ok := index[p.ID2]; ok {
			a.mergeFootprint(cols, fp, a.schema.Suffix)
		}

		rows = append(rows, ResultRow{Geometry: p.Geometry, Columns: cols})
	}

	return rows
}

// GroupRows flattens multilook groups into one row each.
func (a *Assembler) GroupRows(groups []domain.MultilookGroup) []ResultRow {
	rows := make([]ResultRow, 0, len(groups))

	for i := range groups {
		g := &groups[i]
		rows = append(rows, ResultRow{
			Geometry: g.Geometry,
			Columns: map[string]interface{}{
				a.schema.ID:          g.AnchorID(),
				a.schema.PairID:      g.Pairname,
				a.schema.OverlapArea: g.Area,
				a.schema.PairCount:   g.PairCount,
			},
		})
	}

	return rows
}

// mergeFootprint copies a footprint's attributes into cols, suffixing every
// column name when suffix is non-empty.
func (a *Assembler) mergeFootprint(cols map[string]interface{}, fp *domain.Footprint, suffix string) {
	cols[a.schema.ID+suffix] = fp.ID
	if fp.StripID != "" {
		cols[a.schema.StripID+suffix] = fp.StripID
	}
	if fp.Instrument != "" {
		cols[a.schema.Instrument+suffix] = fp.Instrument
	}
	if !fp.Acquired.IsZero() {
		cols[a.schema.Acquired+suffix] = fp.Acquired.UTC().Format(time.RFC3339)
	}
	for key, value := range fp.Properties {
		cols[key+suffix] = value
	}
}

// indexByID builds an id lookup over the pool snapshot.
func indexByID(pool []domain.Footprint) map[string]*domain.Footprint {
	index := make(map[string]*domain.Footprint, len(pool))
	for i := range pool {
		index[pool[i].ID] = &pool[i]
	}
	return index
}
