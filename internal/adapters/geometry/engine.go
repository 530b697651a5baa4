// Package geometry implements the geometry engine port with planar
// polygon clipping.
package geometry

import (
	"fmt"

	"github.com/engelsjk/polygol"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mfriedel/looksel/internal/domain"
)

// Engine computes polygon intersections and unions in a planar CRS. All
// inputs are expected to be projected already; the engine never reprojects.
type Engine struct{}

// NewEngine creates a planar geometry engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Intersects reports whether the two geometries share any interior area.
// Disjoint bounds short-circuit before the exact test.
func (e *Engine) Intersects(a, b orb.Geometry) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	inter, err := e.Intersection(a, b)
	if err != nil {
		return false
	}
	return inter != nil
}

// Intersection clips a against b. A nil result means the geometries do not
// overlap; zero-area touching is treated as no overlap.
func (e *Engine) Intersection(a, b orb.Geometry) (orb.Geometry, error) {
	ga, err := toGeom(a)
	if err != nil {
		return nil, err
	}
	gb, err := toGeom(b)
	if err != nil {
		return nil, err
	}

	result, err := polygol.Intersection(ga, gb)
	if err != nil {
		return nil, fmt.Errorf("polygon intersection: %w", err)
	}
	return fromGeom(result), nil
}

// Union merges a and b into one geometry.
func (e *Engine) Union(a, b orb.Geometry) (orb.Geometry, error) {
	ga, err := toGeom(a)
	if err != nil {
		return nil, err
	}
	gb, err := toGeom(b)
	if err != nil {
		return nil, err
	}

	result, err := polygol.Union(ga, gb)
	if err != nil {
		return nil, fmt.Errorf("polygon union: %w", err)
	}
	return fromGeom(result), nil
}

// Area returns the unsigned planar area of the geometry.
func (e *Engine) Area(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	return planar.Area(g)
}

// toGeom converts an orb polygonal geometry to polygol's multipolygon
// representation.
func toGeom(g orb.Geometry) (polygol.Geom, error) {
	switch geom := g.(type) {
	case orb.Polygon:
		return polygol.Geom{polygonCoords(geom)}, nil
	case orb.MultiPolygon:
		coords := make(polygol.Geom, len(geom))
		for i, poly := range geom {
			coords[i] = polygonCoords(poly)
		}
		return coords, nil
	case nil:
		return nil, &domain.FootprintError{Reason: "nil geometry", Err: domain.ErrInvalidFootprint}
	default:
		return nil, &domain.FootprintError{
			Reason: fmt.Sprintf("unsupported geometry type %s", g.GeoJSONType()),
			Err:    domain.ErrInvalidFootprint,
		}
	}
}

func polygonCoords(poly orb.Polygon) [][][]float64 {
	rings := make([][][]float64, len(poly))
	for i, ring := range poly {
		points := make([][]float64, len(ring))
		for j, pt := range ring {
			points[j] = []float64{pt[0], pt[1]}
		}
		rings[i] = points
	}
	return rings
}

// fromGeom converts a polygol result back to orb, collapsing a
// single-polygon multipolygon and dropping empty results to nil.
func fromGeom(g polygol.Geom) orb.Geometry {
	polygons := make(orb.MultiPolygon, 0, len(g))
	for _, polyCoords := range g {
		poly := make(orb.Polygon, 0, len(polyCoords))
		for _, ringCoords := range polyCoords {
			ring := make(orb.Ring, 0, len(ringCoords))
			for _, pt := range ringCoords {
				if len(pt) < 2 {
					continue
				}
				ring = append(ring, orb.Point{pt[0], pt[1]})
			}
			if len(ring) >= 4 {
				poly = append(poly, ring)
			}
		}
		if len(poly) > 0 {
			polygons = append(polygons, poly)
		}
	}

	switch len(polygons) {
	case 0:
		return nil
	case 1:
		return polygons[0]
	default:
		return polygons
	}
}
