// Package domain contains the core business entities and value objects.
package domain

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Footprint represents one satellite scene's ground coverage polygon
// together with its acquisition attributes. Footprints are value objects:
// they are created by the ingest layer and never mutated by the selection
// engine.
type Footprint struct {
	ID         string                 // Unique scene identifier
	StripID    string                 // Collection pass identifier (optional)
	Instrument string                 // Sensor code (PS2, PS2.SD, PSB.SD, ...)
	Acquired   time.Time              // Acquisition timestamp
	Geometry   orb.Geometry           // Polygon or MultiPolygon in a projected CRS
	Properties map[string]interface{} // Remaining catalog attributes
}

// Validate checks that the footprint can act as an anchor or candidate.
// A footprint without an id or without polygonal geometry is rejected.
func (f *Footprint) Validate() error {
	if f.ID == "" {
		return &FootprintError{ID: f.ID, Reason: "missing id", Err: ErrInvalidFootprint}
	}
	if f.Geometry == nil {
		return &FootprintError{ID: f.ID, Reason: "missing geometry", Err: ErrInvalidFootprint}
	}
	switch f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return &FootprintError{ID: f.ID, Reason: "geometry is not polygonal", Err: ErrInvalidFootprint}
	}
	if planar.Area(f.Geometry) == 0 {
		return &FootprintError{ID: f.ID, Reason: "degenerate zero-area geometry", Err: ErrInvalidFootprint}
	}
	return nil
}

// Area returns the footprint's area in CRS units.
func (f *Footprint) Area() float64 {
	if f.Geometry == nil {
		return 0
	}
	return planar.Area(f.Geometry)
}

// GetProperty returns a catalog attribute by key.
func (f *Footprint) GetProperty(key string) (interface{}, bool) {
	if f.Properties == nil {
		return nil, false
	}
	v, ok := f.Properties[key]
	return v, ok
}

// GetStringProperty returns a catalog attribute as string.
func (f *Footprint) GetStringProperty(key string) string {
	if v, ok := f.GetProperty(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetFloatProperty returns a catalog attribute as float64.
func (f *Footprint) GetFloatProperty(key string) float64 {
	if v, ok := f.GetProperty(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return 0
}

// InstrumentName maps a Planet sensor code to its platform name.
func InstrumentName(code string) string {
	switch code {
	case "PS2":
		return "Dove"
	case "PS2.SD":
		return "Dove-R"
	case "PSB.SD":
		return "SuperDove"
	default:
		return code
	}
}

// Common SRID constants.
const (
	SRIDWGS84       = 4326 // WGS 84, geographic
	SRIDWebMercator = 3857 // Web Mercator, not area-preserving
)

// EckertIV is the global equal-area projection used for area thresholding
// when footprints are reprojected outside the engine.
const EckertIV = "+proj=eck4 +lon_0=0 +datum=WGS84 +units=m +no_defs"
