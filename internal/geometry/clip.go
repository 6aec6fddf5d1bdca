package geometry

import "math"

// collinearEps is the cross-product magnitude below which three vertices are
// treated as collinear during triangulation.
const collinearEps = 1e-12

// triangulate splits a simple polygon into counter-clockwise triangles by ear
// clipping. Degenerate input falls back to a fan over whatever remains.
func triangulate(pts []Point) [][3]Point {
	n := len(pts)
	if n < 3 {
		return nil
	}
	ring := make([]Point, n)
	copy(ring, pts)
	if signedArea(ring) < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	tris := make([][3]Point, 0, n-2)
	for len(idx) > 3 {
		m := len(idx)
		clipped := false
		for i := 0; i < m; i++ {
			ip, in := idx[(i+m-1)%m], idx[(i+1)%m]
			a, b, c := ring[ip], ring[idx[i]], ring[in]
			turn := cross(a, b, c)
			if math.Abs(turn) <= collinearEps*scale(a, b, c) {
				idx = append(idx[:i], idx[i+1:]...)
				clipped = true
				break
			}
			if turn < 0 {
				continue
			}
			if containsOther(ring, idx, ip, idx[i], in, a, b, c) {
				continue
			}
			tris = append(tris, [3]Point{a, b, c})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			for i := 1; i+1 < len(idx); i++ {
				tris = append(tris, [3]Point{ring[idx[0]], ring[idx[i]], ring[idx[i+1]]})
			}
			return tris
		}
	}
	a, b, c := ring[idx[0]], ring[idx[1]], ring[idx[2]]
	if cross(a, b, c) > 0 {
		tris = append(tris, [3]Point{a, b, c})
	}
	return tris
}

func scale(a, b, c Point) float64 {
	s := math.Max(math.Abs(b.X-a.X)+math.Abs(b.Y-a.Y), math.Abs(c.X-b.X)+math.Abs(c.Y-b.Y))
	return math.Max(s*s, 1)
}

// containsOther reports whether any remaining vertex other than the ear's own
// corners lies inside or on triangle abc.
func containsOther(ring []Point, idx []int, ia, ib, ic int, a, b, c Point) bool {
	for _, k := range idx {
		if k == ia || k == ib || k == ic {
			continue
		}
		q := ring[k]
		if q == a || q == b || q == c {
			continue
		}
		if cross(a, b, q) >= 0 && cross(b, c, q) >= 0 && cross(c, a, q) >= 0 {
			return true
		}
	}
	return false
}

// clipConvex clips subject against a convex counter-clockwise polygon using
// Sutherland-Hodgman. The subject may be concave; the result can contain
// zero-width bridges but its shoelace area is the intersection area.
func clipConvex(subject []Point, clip []Point) []Point {
	out := subject
	for i := range clip {
		if len(out) == 0 {
			return nil
		}
		a, b := clip[i], clip[(i+1)%len(clip)]
		in := out
		out = make([]Point, 0, len(in)+2)
		for j := range in {
			cur, next := in[j], in[(j+1)%len(in)]
			dc, dn := cross(a, b, cur), cross(a, b, next)
			switch {
			case dc >= 0 && dn >= 0:
				out = append(out, next)
			case dc >= 0:
				out = append(out, lerp(cur, next, dc/(dc-dn)))
			case dn >= 0:
				out = append(out, lerp(cur, next, dc/(dc-dn)), next)
			}
		}
	}
	return out
}

func lerp(a, b Point, t float64) Point {
	return Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
}

// IntersectionArea returns the area shared by a and b.
func IntersectionArea(a, b Polygon) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return 0
	}
	subject := a.Points()
	var total float64
	for _, tri := range triangulate(b.Points()) {
		part := clipConvex(subject, tri[:])
		if len(part) < 3 {
			continue
		}
		total += math.Abs(signedArea(part))
	}
	return total
}
