// Package output defines the secondary/driven ports of the application.
package output

import "github.com/paulmach/orb"

// GeometryEngine defines the secondary port for planar polygon operations.
// Implementations operate in whatever projected CRS the input geometries
// are expressed in; they never reproject. Implementations must be safe for
// concurrent use.
type GeometryEngine interface {
	// Intersects reports whether the two geometries share any interior area.
	Intersects(a, b orb.Geometry) bool

	// Intersection returns the overlapping region of a and b, or nil when
	// they do not overlap.
	Intersection(a, b orb.Geometry) (orb.Geometry, error)

	// Union returns the combined region of a and b.
	Union(a, b orb.Geometry) (orb.Geometry, error)

	// Area returns the planar area of g in CRS units.
	Area(g orb.Geometry) float64
}
