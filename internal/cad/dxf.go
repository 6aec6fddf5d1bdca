package cad

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/geometry"
)

// arcSegments is the number of chords used to approximate a bulged edge.
const arcSegments = 16

// ReadDXFBoundary returns the first LWPOLYLINE with at least three vertices.
// Bulged edges are flattened into chords.
func ReadDXFBoundary(path string) (geometry.Polygon, error) {
	drawing, err := dxf.Open(path)
	if err != nil {
		return geometry.Polygon{}, eris.Wrapf(err, "cad: open dxf %s", path)
	}

	var skipped int
	for _, ent := range drawing.Entities() {
		lw, ok := ent.(*entity.LwPolyline)
		if !ok {
			continue
		}
		if len(lw.Vertices) < 3 {
			skipped++
			continue
		}
		poly, err := geometry.NewPolygon(lwPolylinePoints(lw.Vertices, lw.Bulges))
		if err != nil {
			skipped++
			continue
		}
		if skipped > 0 {
			zap.L().Debug("cad: skipped short dxf polylines", zap.String("path", path), zap.Int("skipped", skipped))
		}
		return poly, nil
	}
	return geometry.Polygon{}, eris.Wrapf(ErrNoBoundary, "dxf %s", path)
}

// lwPolylinePoints expands LWPOLYLINE vertices, interpolating arcs where a
// vertex carries a non-zero bulge.
func lwPolylinePoints(vertices [][]float64, bulges []float64) []geometry.Point {
	n := len(vertices)
	pts := make([]geometry.Point, 0, n)
	for i, v := range vertices {
		if len(v) < 2 {
			continue
		}
		cur := geometry.Point{X: v[0], Y: v[1]}
		var bulge float64
		if i < len(bulges) {
			bulge = bulges[i]
		}
		next := vertices[(i+1)%n]
		if math.Abs(bulge) < 1e-9 || len(next) < 2 {
			pts = append(pts, cur)
			continue
		}
		arc := bulgeArc(cur, geometry.Point{X: next[0], Y: next[1]}, bulge, arcSegments)
		pts = append(pts, arc[:len(arc)-1]...)
	}
	return pts
}

// bulgeArc returns points from p1 to p2 along the arc described by a DXF
// bulge, the tangent of a quarter of the included angle. Positive bulges
// turn counter-clockwise.
func bulgeArc(p1, p2 geometry.Point, bulge float64, segments int) []geometry.Point {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chord := math.Hypot(dx, dy)
	if chord < 1e-9 {
		return []geometry.Point{p1, p2}
	}
	// Signed distance from chord midpoint to centre, measured to the left.
	d := chord * (1 - bulge*bulge) / (4 * bulge)
	cx := (p1.X+p2.X)/2 - dy/chord*d
	cy := (p1.Y+p2.Y)/2 + dx/chord*d
	r := math.Hypot(p1.X-cx, p1.Y-cy)

	start := math.Atan2(p1.Y-cy, p1.X-cx)
	sweep := 4 * math.Atan(bulge)
	pts := make([]geometry.Point, 0, segments+1)
	for i := 0; i <= segments; i++ {
		a := start + sweep*float64(i)/float64(segments)
		pts = append(pts, geometry.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	pts[segments] = p2
	return pts
}
