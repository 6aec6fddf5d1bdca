package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
)

// NormalizeAngle maps any angle in degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a -= 360
	}
	// Collapse -0 and values that round to a full turn.
	if a == 0 || math.Abs(a-360) < 1e-12 {
		return 0
	}
	return a
}

// sinCos returns exact values at quarter turns so cardinal rotations do not
// pick up 1e-17 noise.
func sinCos(deg float64) (float64, float64) {
	switch NormalizeAngle(deg) {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(deg * math.Pi / 180)
}

// RotatePoint rotates pt counter-clockwise by deg degrees about origin.
func RotatePoint(pt Point, deg float64, origin Point) Point {
	sin, cos := sinCos(deg)
	x := pt.X - origin.X
	y := pt.Y - origin.Y
	return Point{
		X: x*cos - y*sin + origin.X,
		Y: x*sin + y*cos + origin.Y,
	}
}

// Rotate rotates p counter-clockwise by deg degrees about origin.
func Rotate(p Polygon, deg float64, origin Point) Polygon {
	if p.g == nil {
		return p
	}
	sin, cos := sinCos(deg)
	g := p.g.Clone()
	geom.TransformInPlace(g, func(c geom.Coord) {
		x := c[0] - origin.X
		y := c[1] - origin.Y
		c[0] = x*cos - y*sin + origin.X
		c[1] = x*sin + y*cos + origin.Y
	})
	return Polygon{g: g}
}

// RotateAboutCentroid rotates p about its own area centroid.
func RotateAboutCentroid(p Polygon, deg float64) Polygon {
	return Rotate(p, deg, p.Centroid())
}

// Translate shifts p by (dx, dy).
func Translate(p Polygon, dx, dy float64) Polygon {
	if p.g == nil {
		return p
	}
	g := p.g.Clone()
	geom.TransformInPlace(g, func(c geom.Coord) {
		c[0] += dx
		c[1] += dy
	})
	return Polygon{g: g}
}

// CenterOn translates p so its centroid coincides with target and returns the
// moved polygon with the offset applied.
func CenterOn(p Polygon, target Point) (Polygon, float64, float64) {
	c := p.Centroid()
	dx := target.X - c.X
	dy := target.Y - c.Y
	return Translate(p, dx, dy), dx, dy
}
