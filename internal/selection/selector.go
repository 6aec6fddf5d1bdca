// Package selection drives the drainfield configuration hierarchy: it sizes
// each configuration, ranks catalog patterns and runs the fit search until a
// pattern fits or every option is exhausted.
package selection

import (
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/catalog"
	"github.com/redbay-eng/drainfield-placer/internal/fit"
	"github.com/redbay-eng/drainfield-placer/internal/geometry"
)

// Selector holds the immutable inputs of a selection. It is safe for
// concurrent use.
type Selector struct {
	catalog  *catalog.Catalog
	products []string
	searcher *fit.Searcher
	areas    AreaSource
	log      *zap.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithProducts overrides the product priority order.
func WithProducts(ids ...string) Option {
	return func(s *Selector) {
		if len(ids) > 0 {
			s.products = append([]string(nil), ids...)
		}
	}
}

// WithSearcher replaces the default fit searcher.
func WithSearcher(f *fit.Searcher) Option {
	return func(s *Selector) {
		if f != nil {
			s.searcher = f
		}
	}
}

// WithAreaSource sets a table that overrides the required-area formula.
func WithAreaSource(src AreaSource) Option {
	return func(s *Selector) { s.areas = src }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a Selector over c. Products default to the catalog's own
// priority order.
func New(c *catalog.Catalog, opts ...Option) *Selector {
	s := &Selector{
		catalog:  c,
		searcher: fit.New(fit.DefaultOptions()),
		log:      zap.L().With(zap.String("component", "selection")),
	}
	for _, p := range c.Products() {
		s.products = append(s.products, p.ID)
	}
	if len(s.products) == 0 {
		for _, p := range catalog.DefaultProducts() {
			s.products = append(s.products, p.ID)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Products returns the product priority order.
func (s *Selector) Products() []string {
	return append([]string(nil), s.products...)
}

// RequiredArea returns the area for flow under t, preferring the area
// source. Split types return the per-field share.
func (s *Selector) RequiredArea(flowGPD float64, t ConfigType) float64 {
	if t.IsSplit() {
		if s.areas != nil {
			if v, ok := s.areas.RequiredArea(flowGPD, t); ok {
				return v
			}
		}
		return SplitArea(s.RequiredArea(flowGPD, t.Base()))
	}
	if s.areas != nil {
		if v, ok := s.areas.RequiredArea(flowGPD, t); ok {
			return v
		}
	}
	return RequiredArea(flowGPD, t)
}

// Select tries every product in priority order for one boundary and returns
// the first pattern that fits. An invalid boundary is returned as a
// *geometry.ValidationError.
func (s *Selector) Select(boundary geometry.Polygon, required float64, t ConfigType) (Result, error) {
	if err := geometry.ValidateBoundary(boundary); err != nil {
		return Result{}, err
	}
	res := s.selectConfig(boundary, required, t)
	res.Attempted = []ConfigType{t}
	return res, nil
}

func (s *Selector) selectConfig(boundary geometry.Polygon, required float64, t ConfigType) Result {
	for _, product := range s.products {
		if p, ok := s.tryProduct(product, t.Class(), boundary, required); ok {
			return Result{Success: true, ConfigType: t, Placement: &p, RequiredSqft: required}
		}
	}
	return Result{ConfigType: t, RequiredSqft: required, Reason: NoFitReason(t)}
}

func (s *Selector) tryProduct(product string, class catalog.Class, boundary geometry.Polygon, required float64) (Placement, bool) {
	patterns := s.catalog.Patterns(product, class)
	if len(patterns) == 0 {
		s.log.Debug("no patterns for product", zap.String("product", product), zap.String("class", string(class)))
		return Placement{}, false
	}
	candidates := catalog.Rank(patterns, required)
	if len(candidates) == 0 {
		s.log.Debug("no pattern meets required area",
			zap.String("product", product),
			zap.String("class", string(class)),
			zap.Float64("required_sqft", required),
		)
		return Placement{}, false
	}

	target := boundary.Centroid()
	for _, c := range candidates {
		shoulder, err := c.ShoulderPolygon()
		if err != nil {
			s.log.Warn("skipping malformed pattern", zap.String("pattern", c.Name), zap.Error(err))
			continue
		}
		f, ok := s.searcher.Search(shoulder, boundary)
		if !ok {
			continue
		}
		origin := shoulder.Centroid()
		return Placement{
			Product:   product,
			Pattern:   c.Name,
			Metadata:  c.Metadata,
			Rotation:  f.Angle,
			Origin:    origin,
			OffsetX:   target.X - origin.X,
			OffsetY:   target.Y - origin.Y,
			Tier:      f.Tier,
			Polygon:   f.Polygon,
			Polylines: c.Polylines,
		}, true
	}
	return Placement{}, false
}

// ApplyHierarchy runs trench, bed, trench_atu and bed_atu against boundary.
// When none fits and split is nil the result asks for a split. A non-nil
// split must hold exactly two boundaries, even when empty; the split
// variants are then tried, each needing both boundaries to fit.
func (s *Selector) ApplyHierarchy(boundary geometry.Polygon, flowGPD float64, split []geometry.Polygon) (Result, error) {
	if err := geometry.ValidateBoundary(boundary); err != nil {
		return Result{}, err
	}

	var attempted []ConfigType
	for _, t := range Sequence {
		required := s.RequiredArea(flowGPD, t)
		res := s.selectConfig(boundary, required, t)
		attempted = append(attempted, t)
		if res.Success {
			res.Attempted = attempted
			res.FlowGPD = flowGPD
			s.log.Info("configuration selected",
				zap.String("config_type", string(t)),
				zap.String("product", res.Placement.Product),
				zap.String("pattern", res.Placement.Pattern),
				zap.Float64("rotation", res.Placement.Rotation),
			)
			return res, nil
		}
	}

	if split == nil {
		return Result{
			Reason:    ReasonNeedsSplit,
			Message:   MsgNeedsSplit,
			FlowGPD:   flowGPD,
			Attempted: attempted,
		}, nil
	}
	if len(split) != 2 {
		return Result{
			Reason:    ReasonInvalidSplit,
			Message:   MsgInvalidSplit,
			FlowGPD:   flowGPD,
			Attempted: attempted,
		}, nil
	}
	for _, b := range split {
		if err := geometry.ValidateBoundary(b); err != nil {
			return Result{}, err
		}
	}

	for _, base := range Sequence {
		t := base.Split()
		required := s.RequiredArea(flowGPD, t)
		first := s.selectConfig(split[0], required, t)
		second := s.selectConfig(split[1], required, t)
		attempted = append(attempted, t)
		if first.Success && second.Success {
			s.log.Info("split configuration selected", zap.String("config_type", string(t)))
			return Result{
				Success:          true,
				ConfigType:       t,
				Split:            &Split{First: *first.Placement, Second: *second.Placement},
				FlowGPD:          flowGPD,
				RequiredSqftEach: required,
				Attempted:        attempted,
			}, nil
		}
	}

	return Result{
		Reason:    ReasonNeedsRedesign,
		Message:   MsgNeedsRedesign,
		FlowGPD:   flowGPD,
		Attempted: attempted,
	}, nil
}
