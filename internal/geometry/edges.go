package geometry

import "math"

// Edge describes one ring edge: its orientation folded into [0, 180) so that
// parallel edges share a value, and its length.
type Edge struct {
	Angle  float64
	Length float64
	Index  int
}

// EdgeAngles returns the orientation and length of every edge of p, in ring order.
func EdgeAngles(p Polygon) []Edge {
	pts := p.Points()
	n := len(pts)
	if n < 2 {
		return nil
	}
	edges := make([]Edge, 0, n)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		dx := b.X - a.X
		dy := b.Y - a.Y
		edges = append(edges, Edge{
			Angle:  foldAngle(math.Atan2(dy, dx) * 180 / math.Pi),
			Length: math.Hypot(dx, dy),
			Index:  i,
		})
	}
	return edges
}

func foldAngle(deg float64) float64 {
	if deg < 0 {
		deg += 180
	}
	if deg >= 180 {
		deg -= 180
	}
	if deg == 0 {
		return 0
	}
	return deg
}
