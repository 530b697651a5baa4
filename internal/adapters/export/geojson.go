// Package export renders selection results to output files.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/mfriedel/looksel/internal/application"
	"github.com/mfriedel/looksel/internal/domain"
)

// GeoJSONWriter renders assembled result rows as a feature collection.
type GeoJSONWriter struct{}

// NewGeoJSONWriter creates a result writer.
func NewGeoJSONWriter() *GeoJSONWriter {
	return &GeoJSONWriter{}
}

// Write streams the rows to w as one GeoJSON feature collection. Rows
// without geometry are still written, as null-geometry features, so the
// tabular columns survive.
func (e *GeoJSONWriter) Write(w io.Writer, rows []application.ResultRow) error {
	fc := geojson.NewFeatureCollection()

	for i := range rows {
		row := &rows[i]
		feature := geojson.NewFeature(row.Geometry)
		for col, value := range row.Columns {
			feature.Properties[col] = value
		}
		fc.Append(feature)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding result collection: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing result collection: %w", err)
	}
	return nil
}

// WriteSceneIDs writes the distinct scene ids referenced by the groups,
// one per line, sorted. Downstream ordering tools consume this list to
// pull imagery for the selected chains.
func WriteSceneIDs(w io.Writer, groups []domain.MultilookGroup) error {
	seen := make(map[string]struct{})
	for i := range groups {
		for _, id := range groups[i].PairIDs {
			seen[id] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if len(ids) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, strings.Join(ids, "\n")+"\n"); err != nil {
		return fmt.Errorf("writing scene id list: %w", err)
	}
	return nil
}

// WritePairSceneIDs writes the distinct scene ids referenced by stereo
// pairs, one per line, sorted.
func WritePairSceneIDs(w io.Writer, pairs []domain.OverlapPair) error {
	seen := make(map[string]struct{})
	for i := range pairs {
		seen[pairs[i].ID1] = struct{}{}
		seen[pairs[i].ID2] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if len(ids) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, strings.Join(ids, "\n")+"\n"); err != nil {
		return fmt.Errorf("writing scene id list: %w", err)
	}
	return nil
}
