package cad

import "github.com/redbay-eng/drainfield-placer/internal/geometry"

// PlacementSource tags polylines written by the placer.
const PlacementSource = "drainfield_placer"

// Transform rotates about Origin, then shifts by (DX, DY).
type Transform struct {
	Rotation float64
	Origin   geometry.Point
	DX, DY   float64
}

// Apply transforms a single point.
func (t Transform) Apply(pt geometry.Point) geometry.Point {
	if t.Rotation != 0 {
		pt = geometry.RotatePoint(pt, t.Rotation, t.Origin)
	}
	return geometry.Point{X: pt.X + t.DX, Y: pt.Y + t.DY}
}

// TransformPolyline returns a transformed copy of p.
func TransformPolyline(p Polyline, t Transform) Polyline {
	out := p.Clone()
	for i, pt := range out.Points {
		out.Points[i] = t.Apply(pt)
	}
	return out
}

// Placement identifies what is being placed, for the metadata stamped on
// each output polyline.
type Placement struct {
	Product   string
	Pattern   string
	Transform Transform
	Polylines []Polyline
}

// Place returns a copy of doc with every polyline of each placement
// transformed and appended. The input document is not modified.
func Place(doc Document, placements ...Placement) Document {
	out := doc.Clone()
	for _, pl := range placements {
		for _, src := range pl.Polylines {
			p := TransformPolyline(src, pl.Transform)
			p.Metadata = map[string]any{
				"source":      PlacementSource,
				"product":     pl.Product,
				"pattern":     pl.Pattern,
				"rotation":    pl.Transform.Rotation,
				"is_shoulder": src.Closed,
			}
			out.Polylines = append(out.Polylines, p)
		}
	}
	return out
}
