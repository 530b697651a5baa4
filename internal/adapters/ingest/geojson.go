// Package ingest parses footprint catalog files into domain footprints.
package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/mfriedel/looksel/internal/domain"
)

// Property keys recognized in footprint feature collections.
const (
	propID         = "id"
	propStripID    = "strip_id"
	propInstrument = "instrument"
	propAcquired   = "acquired"
)

// acquiredLayouts are tried in order when parsing acquisition timestamps.
var acquiredLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// GeoJSONParser reads footprint feature collections. Features that cannot
// act as footprints are skipped and counted, never fatal; a file where
// nothing parses at all is an error.
type GeoJSONParser struct {
	logger *slog.Logger
}

// NewGeoJSONParser creates a feature collection parser.
func NewGeoJSONParser(logger *slog.Logger) *GeoJSONParser {
	return &GeoJSONParser{logger: logger}
}

// Parse decodes a GeoJSON feature collection into footprints. The returned
// int counts skipped features.
func (p *GeoJSONParser) Parse(r io.Reader) ([]domain.Footprint, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("reading footprint file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding feature collection: %w", err)
	}

	footprints := make([]domain.Footprint, 0, len(fc.Features))
	skipped := 0

	for _, feature := range fc.Features {
		fp, err := p.footprintFromFeature(feature)
		if err != nil {
			p.logger.Warn("skipping unusable feature", "error", err)
			skipped++
			continue
		}
		footprints = append(footprints, fp)
	}

	return footprints, skipped, nil
}

// footprintFromFeature maps one GeoJSON feature to a footprint. The scene
// id comes from the feature id or the id property, whichever is set.
func (p *GeoJSONParser) footprintFromFeature(feature *geojson.Feature) (domain.Footprint, error) {
	fp := domain.Footprint{
		ID:       featureID(feature),
		Geometry: feature.Geometry,
	}

	properties := make(map[string]interface{}, len(feature.Properties))
	for key, value := range feature.Properties {
		switch key {
		case propID:
			// Already consumed for the id.
		case propStripID:
			fp.StripID, _ = value.(string)
		case propInstrument:
			fp.Instrument, _ = value.(string)
		case propAcquired:
			acquired, err := parseAcquired(value)
			if err != nil {
				return domain.Footprint{}, &domain.FootprintError{
					ID: fp.ID, Reason: "unparseable acquired timestamp", Err: err,
				}
			}
			fp.Acquired = acquired
		default:
			properties[key] = value
		}
	}
	if len(properties) > 0 {
		fp.Properties = properties
	}

	if err := fp.Validate(); err != nil {
		return domain.Footprint{}, err
	}
	return fp, nil
}

// featureID prefers the GeoJSON feature id, falling back to the id
// property.
func featureID(feature *geojson.Feature) string {
	switch id := feature.ID.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	}
	if s, ok := feature.Properties[propID].(string); ok {
		return s
	}
	return ""
}

// parseAcquired accepts the timestamp layouts seen in catalog exports.
func parseAcquired(value interface{}) (time.Time, error) {
	s, ok := value.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("acquired is %T, want string", value)
	}
	for _, layout := range acquiredLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized acquired timestamp %q", s)
}

// MarshalFootprints renders footprints back to a feature collection, used
// by the export path and round-trip tests.
func MarshalFootprints(footprints []domain.Footprint) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for i := range footprints {
		fp := &footprints[i]
		feature := geojson.NewFeature(fp.Geometry)
		feature.ID = fp.ID
		feature.Properties[propID] = fp.ID
		if fp.StripID != "" {
			feature.Properties[propStripID] = fp.StripID
		}
		if fp.Instrument != "" {
			feature.Properties[propInstrument] = fp.Instrument
		}
		if !fp.Acquired.IsZero() {
			feature.Properties[propAcquired] = fp.Acquired.UTC().Format(time.RFC3339)
		}
		for key, value := range fp.Properties {
			feature.Properties[key] = value
		}
		fc.Append(feature)
	}
	return fc.MarshalJSON()
}
