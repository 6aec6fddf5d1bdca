// Package geometry provides the planar polygon operations used to fit
// prefabricated drainfield footprints inside property boundaries. Coordinates
// are in feet. Polygons are backed by go-geom and are never mutated once built.
package geometry

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Point is a planar coordinate in feet.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ErrTooFewPoints is returned when a ring has fewer than three distinct vertices.
var ErrTooFewPoints = eris.New("geometry: polygon needs at least 3 distinct points")

// Polygon is a single-ring polygon. The zero value is an empty polygon.
type Polygon struct {
	g *geom.Polygon
}

// NewPolygon builds a polygon from its vertices. The ring is closed
// automatically and consecutive duplicate vertices are dropped.
func NewPolygon(pts []Point) (Polygon, error) {
	clean := make([]Point, 0, len(pts))
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return Polygon{}, eris.Errorf("geometry: non-finite coordinate (%v, %v)", p.X, p.Y)
		}
		if n := len(clean); n > 0 && clean[n-1] == p {
			continue
		}
		clean = append(clean, p)
	}
	if n := len(clean); n > 1 && clean[0] == clean[n-1] {
		clean = clean[:n-1]
	}
	if len(clean) < 3 {
		return Polygon{}, ErrTooFewPoints
	}
	return fromPoints(clean), nil
}

// MustPolygon is like NewPolygon but panics on error. Intended for fixtures.
func MustPolygon(pts ...Point) Polygon {
	p, err := NewPolygon(pts)
	if err != nil {
		panic(err)
	}
	return p
}

// NewRect returns the axis-aligned rectangle spanning the two corners.
func NewRect(minX, minY, maxX, maxY float64) Polygon {
	return fromPoints([]Point{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}})
}

// FromGeom wraps the exterior ring of a go-geom polygon.
func FromGeom(g *geom.Polygon) (Polygon, error) {
	if g == nil || g.NumLinearRings() == 0 {
		return Polygon{}, ErrTooFewPoints
	}
	ring := g.LinearRing(0)
	pts := make([]Point, 0, ring.NumCoords())
	for _, c := range ring.Coords() {
		pts = append(pts, Point{X: c.X(), Y: c.Y()})
	}
	return NewPolygon(pts)
}

// fromPoints builds the closed go-geom ring without validation.
func fromPoints(pts []Point) Polygon {
	flat := make([]float64, 0, (len(pts)+1)*2)
	for _, p := range pts {
		flat = append(flat, p.X, p.Y)
	}
	flat = append(flat, pts[0].X, pts[0].Y)
	return Polygon{g: geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})}
}

// IsEmpty reports whether the polygon has no ring.
func (p Polygon) IsEmpty() bool {
	return p.g == nil
}

// Points returns the ring vertices without the closing point.
func (p Polygon) Points() []Point {
	if p.g == nil {
		return nil
	}
	flat := p.g.FlatCoords()
	n := len(flat)/2 - 1
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = Point{X: flat[2*i], Y: flat[2*i+1]}
	}
	return pts
}

// ring returns the closed flat coordinate slice. Callers must not modify it.
func (p Polygon) ring() []float64 {
	if p.g == nil {
		return nil
	}
	return p.g.FlatCoords()
}

// Area returns the unsigned area in square feet.
func (p Polygon) Area() float64 {
	if p.g == nil {
		return 0
	}
	return math.Abs(p.g.Area())
}

// Centroid returns the area centroid.
func (p Polygon) Centroid() Point {
	if p.g == nil {
		return Point{}
	}
	c := xy.PolygonsCentroid(p.g)
	return Point{X: c.X(), Y: c.Y()}
}

// Bounds returns the lower-left and upper-right corners of the bounding box.
func (p Polygon) Bounds() (Point, Point) {
	if p.g == nil {
		return Point{}, Point{}
	}
	b := p.g.Bounds()
	return Point{X: b.Min(0), Y: b.Min(1)}, Point{X: b.Max(0), Y: b.Max(1)}
}

// ToGeom returns a copy of the underlying go-geom polygon for encoders.
func (p Polygon) ToGeom() *geom.Polygon {
	if p.g == nil {
		return geom.NewPolygon(geom.XY)
	}
	return p.g.Clone()
}

// signedArea is positive for counter-clockwise rings.
func signedArea(pts []Point) float64 {
	var a float64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// MarshalJSON encodes the ring as an array of points without the closing point.
func (p Polygon) MarshalJSON() ([]byte, error) {
	pts := p.Points()
	if pts == nil {
		pts = []Point{}
	}
	return json.Marshal(pts)
}

// UnmarshalJSON decodes an array of points. An empty array yields an empty polygon.
func (p *Polygon) UnmarshalJSON(b []byte) error {
	var pts []Point
	if err := json.Unmarshal(b, &pts); err != nil {
		return eris.Wrap(err, "geometry: decode polygon")
	}
	if len(pts) == 0 {
		*p = Polygon{}
		return nil
	}
	poly, err := NewPolygon(pts)
	if err != nil {
		return err
	}
	*p = poly
	return nil
}
