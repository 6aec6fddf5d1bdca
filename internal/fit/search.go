// Package fit searches for a rotation and centering translation that places a
// footprint inside a boundary.
package fit

import (
	"math"
	"sort"

	"github.com/redbay-eng/drainfield-placer/internal/geometry"
)

// Tier identifies which stage of the search produced a fit.
type Tier int

const (
	// TierEdgeAligned angles come from the boundary's own edges.
	TierEdgeAligned Tier = 1
	// TierSweep angles come from the fixed-step fallback sweep.
	TierSweep Tier = 2
)

// cardinals are always tried during the edge-aligned tier.
var cardinals = [...]float64{0, 90, 180, 270}

// Options tunes the search.
type Options struct {
	// Step is the increment of the fallback sweep in degrees.
	Step float64
	// Perturbation is added and subtracted once around every edge-aligned angle.
	Perturbation float64
	// Tolerance is the uncovered area, in square feet, still accepted as a fit.
	Tolerance float64
	// Engine answers containment questions. Nil uses geometry.Planar.
	Engine geometry.Engine
}

// DefaultOptions returns a 5 degree sweep with 5 degree perturbations.
func DefaultOptions() Options {
	return Options{
		Step:         5,
		Perturbation: 5,
		Tolerance:    geometry.Tolerance,
		Engine:       geometry.Planar{},
	}
}

// Fit is a successful placement of a footprint.
type Fit struct {
	// Angle is the counter-clockwise rotation about the footprint centroid.
	Angle float64
	// Polygon is the footprint after rotation and centering.
	Polygon geometry.Polygon
	// DX and DY move the rotated footprint's centroid onto the boundary centroid.
	DX, DY float64
	Tier   Tier
}

// Searcher runs the two-tier rotation search. It holds no mutable state and is
// safe for concurrent use.
type Searcher struct {
	opts Options
}

// New returns a Searcher. A non-positive Step or Tolerance and a nil Engine
// take their defaults; a zero Perturbation disables perturbation.
func New(opts Options) *Searcher {
	def := DefaultOptions()
	if opts.Step <= 0 {
		opts.Step = def.Step
	}
	if opts.Perturbation < 0 {
		opts.Perturbation = def.Perturbation
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.Engine == nil {
		opts.Engine = def.Engine
	}
	return &Searcher{opts: opts}
}

// Options returns the effective options.
func (s *Searcher) Options() Options { return s.opts }

// Search tries the edge-aligned angles first and falls back to the sweep. It
// reports false when no angle fits.
func (s *Searcher) Search(footprint, boundary geometry.Polygon) (Fit, bool) {
	if footprint.IsEmpty() || boundary.IsEmpty() {
		return Fit{}, false
	}
	target := boundary.Centroid()
	if f, ok := s.try(footprint, boundary, target, CandidateAngles(boundary, s.opts.Perturbation), TierEdgeAligned); ok {
		return f, true
	}
	return s.try(footprint, boundary, target, SweepAngles(s.opts.Step), TierSweep)
}

func (s *Searcher) try(footprint, boundary geometry.Polygon, target geometry.Point, angles []float64, tier Tier) (Fit, bool) {
	for _, a := range angles {
		rotated := geometry.RotateAboutCentroid(footprint, a)
		placed, dx, dy := geometry.CenterOn(rotated, target)
		if geometry.FitsWith(s.opts.Engine, placed, boundary, s.opts.Tolerance) {
			return Fit{Angle: a, Polygon: placed, DX: dx, DY: dy, Tier: tier}, true
		}
	}
	return Fit{}, false
}

// CandidateAngles returns the edge-aligned angles for boundary: each edge angle
// (longest edges first) and its perpendicular, the four cardinals, then one
// pass of +/- perturbation around everything collected. The result is
// normalised to [0, 360), deduplicated and ascending.
func CandidateAngles(boundary geometry.Polygon, perturbation float64) []float64 {
	edges := geometry.EdgeAngles(boundary)
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Length > edges[j].Length })

	base := make([]float64, 0, 2*len(edges)+len(cardinals))
	for _, e := range edges {
		base = append(base, e.Angle, e.Angle+90)
	}
	base = append(base, cardinals[:]...)

	all := make([]float64, 0, 3*len(base))
	all = append(all, base...)
	if perturbation != 0 {
		for _, a := range base {
			all = append(all, a+perturbation, a-perturbation)
		}
	}
	return dedupe(all)
}

// SweepAngles returns 0, step, 2*step ... below 360.
func SweepAngles(step float64) []float64 {
	if step <= 0 {
		return nil
	}
	n := int(math.Ceil(360/step - 1e-9))
	angles := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		a := float64(i) * step
		if a >= 360 {
			break
		}
		angles = append(angles, a)
	}
	return angles
}

func dedupe(angles []float64) []float64 {
	seen := make(map[int64]struct{}, len(angles))
	out := make([]float64, 0, len(angles))
	for _, a := range angles {
		a = geometry.NormalizeAngle(a)
		key := int64(math.Round(a * 1e9))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	sort.Float64s(out)
	return out
}
