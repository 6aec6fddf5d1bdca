package geometry

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy/lineintersection"
	"github.com/twpayne/go-geom/xy/lineintersector"
)

// MinBoundaryArea is the smallest usable boundary, in square feet.
const MinBoundaryArea = 1.0

// Messages reported for unusable boundaries.
const (
	MsgInvalidBoundary  = "Boundary polygon is not valid (self-intersecting or malformed)"
	MsgBoundaryTooSmall = "Boundary area is too small (< 1 sq ft)"
)

// ValidationError describes why a boundary cannot be used for placement.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidateBoundary returns a *ValidationError when p is malformed,
// self-intersecting or smaller than MinBoundaryArea.
func ValidateBoundary(p Polygon) error {
	if p.IsEmpty() || !IsSimple(p) || p.Area() == 0 {
		return &ValidationError{Message: MsgInvalidBoundary}
	}
	if p.Area() < MinBoundaryArea {
		return &ValidationError{Message: MsgBoundaryTooSmall}
	}
	return nil
}

// IsSimple reports whether the ring of p has no self-intersections. Adjacent
// edges may only share their common vertex.
func IsSimple(p Polygon) bool {
	pts := p.Points()
	n := len(pts)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a1, a2 := pts[i], pts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			b1, b2 := pts[j], pts[(j+1)%n]
			adjacent := j == i+1 || (i == 0 && j == n-1)
			res := lineintersector.LineIntersectsLine(
				lineintersector.RobustLineIntersector{},
				geom.Coord{a1.X, a1.Y}, geom.Coord{a2.X, a2.Y},
				geom.Coord{b1.X, b1.Y}, geom.Coord{b2.X, b2.Y},
			)
			if !res.HasIntersection() {
				continue
			}
			if !adjacent {
				return false
			}
			// Adjacent edges folding back over each other form a spike.
			if res.Type() == lineintersection.CollinearIntersection {
				return false
			}
		}
	}
	return true
}
