package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/lineintersector"
	"github.com/twpayne/go-geom/xy/location"
)

// Tolerance is the largest footprint area, in square feet, that may fall
// outside a boundary while the footprint still counts as fitting.
const Tolerance = 0.001

// withinEps is the relative uncovered area that still counts as strict
// containment, absorbing floating point noise from clipping.
const withinEps = 1e-9

// Engine answers the three containment questions the fit search asks.
// Planar is the default; alternative engines can be swapped in by callers.
type Engine interface {
	Within(footprint, boundary Polygon) bool
	Intersects(footprint, boundary Polygon) bool
	DifferenceArea(footprint, boundary Polygon) float64
}

// Planar is the built-in Engine over plane coordinates.
type Planar struct{}

var _ Engine = Planar{}

// Within reports whether footprint lies entirely inside boundary, touching
// allowed.
func (Planar) Within(footprint, boundary Polygon) bool {
	if footprint.IsEmpty() || boundary.IsEmpty() {
		return false
	}
	if !boxContains(boundary, footprint) {
		return false
	}
	ring := boundary.ring()
	for _, pt := range footprint.Points() {
		if xy.LocatePointInRing(geom.XY, geom.Coord{pt.X, pt.Y}, ring) == location.Exterior {
			return false
		}
	}
	area := footprint.Area()
	return area-IntersectionArea(footprint, boundary) <= withinEps*math.Max(1, area)
}

// Intersects reports whether the two polygons share at least one point.
func (Planar) Intersects(footprint, boundary Polygon) bool {
	if footprint.IsEmpty() || boundary.IsEmpty() {
		return false
	}
	if !boxOverlaps(footprint, boundary) {
		return false
	}
	if anyVertexInside(footprint, boundary) || anyVertexInside(boundary, footprint) {
		return true
	}
	fp, bp := footprint.Points(), boundary.Points()
	for i := range fp {
		a1, a2 := fp[i], fp[(i+1)%len(fp)]
		for j := range bp {
			b1, b2 := bp[j], bp[(j+1)%len(bp)]
			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// DifferenceArea returns the area of footprint lying outside boundary.
func (Planar) DifferenceArea(footprint, boundary Polygon) float64 {
	d := footprint.Area() - IntersectionArea(footprint, boundary)
	if d < 0 {
		return 0
	}
	return d
}

// Fits applies the default engine and Tolerance.
func Fits(footprint, boundary Polygon) bool {
	return FitsWith(Planar{}, footprint, boundary, Tolerance)
}

// FitsWith reports whether footprint is within boundary, or overlaps it with
// less than tol square feet left outside.
func FitsWith(e Engine, footprint, boundary Polygon, tol float64) bool {
	if e == nil {
		e = Planar{}
	}
	if e.Within(footprint, boundary) {
		return true
	}
	if !e.Intersects(footprint, boundary) {
		return false
	}
	return e.DifferenceArea(footprint, boundary) < tol
}

func anyVertexInside(p, q Polygon) bool {
	ring := q.ring()
	for _, pt := range p.Points() {
		if xy.LocatePointInRing(geom.XY, geom.Coord{pt.X, pt.Y}, ring) != location.Exterior {
			return true
		}
	}
	return false
}

func segmentsIntersect(a1, a2, b1, b2 Point) bool {
	res := lineintersector.LineIntersectsLine(
		lineintersector.RobustLineIntersector{},
		geom.Coord{a1.X, a1.Y}, geom.Coord{a2.X, a2.Y},
		geom.Coord{b1.X, b1.Y}, geom.Coord{b2.X, b2.Y},
	)
	return res.HasIntersection()
}

func boxContains(outer, inner Polygon) bool {
	omin, omax := outer.Bounds()
	imin, imax := inner.Bounds()
	const eps = 1e-9
	return imin.X >= omin.X-eps && imin.Y >= omin.Y-eps &&
		imax.X <= omax.X+eps && imax.Y <= omax.Y+eps
}

func boxOverlaps(a, b Polygon) bool {
	amin, amax := a.Bounds()
	bmin, bmax := b.Bounds()
	return amin.X <= bmax.X && bmin.X <= amax.X && amin.Y <= bmax.Y && bmin.Y <= amax.Y
}
