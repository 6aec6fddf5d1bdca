// Package placer combines the selector, the regulatory tables and the run
// store into the place, select and batch operations served by the CLI and
// the HTTP API.
package placer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/geometry"
	"github.com/redbay-eng/drainfield-placer/internal/requirements"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
	"github.com/redbay-eng/drainfield-placer/internal/store"
)

var (
	// ErrNoFlow is returned when a request carries neither a flow nor a
	// dwelling to estimate one from.
	ErrNoFlow = eris.New("placer: flow_gpd or bedrooms and building size required")
	// ErrNoTables is returned when a dwelling must be sized but no tables
	// are loaded.
	ErrNoTables = eris.New("placer: regulatory tables not loaded")
)

// InputError marks a request the caller must correct.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return e.Err.Error() }

func (e *InputError) Unwrap() error { return e.Err }

// Service runs selections. It is safe for concurrent use when its run store
// is.
type Service struct {
	selector *selection.Selector
	tables   *requirements.Tables
	runs     store.RunStore
	log      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTables enables dwelling sizing.
func WithTables(t *requirements.Tables) Option {
	return func(s *Service) { s.tables = t }
}

// WithRunStore records every run in rs.
func WithRunStore(rs store.RunStore) Option {
	return func(s *Service) { s.runs = rs }
}

// New returns a Service around sel.
func New(sel *selection.Selector, opts ...Option) *Service {
	s := &Service{
		selector: sel,
		log:      zap.L().With(zap.String("component", "placer")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Selector returns the underlying selector.
func (s *Service) Selector() *selection.Selector { return s.selector }

// Tables returns the loaded tables, or nil.
func (s *Service) Tables() *requirements.Tables { return s.tables }

// Runs returns the run store, or nil.
func (s *Service) Runs() store.RunStore { return s.runs }

// Request is one property to run through the configuration hierarchy.
type Request struct {
	PropertyID string
	Boundary   geometry.Polygon
	Split      []geometry.Polygon
	// FlowGPD wins over Dwelling when positive.
	FlowGPD  float64
	Dwelling *requirements.SizingInput
}

// Boundaries returns the main boundary followed by any split boundaries.
func (r Request) Boundaries() []geometry.Polygon {
	return append([]geometry.Polygon{r.Boundary}, r.Split...)
}

// PlaceRequest fits a single configuration type into one boundary.
type PlaceRequest struct {
	PropertyID   string
	Boundary     geometry.Polygon
	RequiredSqft float64
	ConfigType   selection.ConfigType
}

// Outcome is the result of a run and what was derived from it.
type Outcome struct {
	PropertyID string               `json:"property_id,omitempty"`
	RunID      string               `json:"run_id,omitempty"`
	Result     selection.Result     `json:"result"`
	Summary    selection.Summary    `json:"summary"`
	Sizing     *requirements.Sizing `json:"sizing,omitempty"`
}

// Select sizes the property when needed, applies the hierarchy and records
// the run. A boundary that cannot be used is returned as a
// *geometry.ValidationError.
func (s *Service) Select(ctx context.Context, req Request) (Outcome, error) {
	out, run, err := s.evaluate(req)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.record(ctx, run, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Place runs a single configuration type and records the run.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (Outcome, error) {
	if req.RequiredSqft <= 0 {
		return Outcome{}, &InputError{Err: eris.New("placer: required area must be positive")}
	}
	t := req.ConfigType
	if t == "" {
		t = selection.Trench
	}
	if !t.Valid() {
		return Outcome{}, &InputError{Err: eris.Errorf("placer: unknown configuration type %q", t)}
	}

	res, err := s.selector.Select(req.Boundary, req.RequiredSqft, t)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{PropertyID: req.PropertyID, Result: res, Summary: selection.Summarize(res)}
	run, err := store.NewRun(req.PropertyID, res)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.record(ctx, run, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Size returns the sizing for a dwelling.
func (s *Service) Size(in requirements.SizingInput) (requirements.Sizing, error) {
	if s.tables == nil {
		return requirements.Sizing{}, ErrNoTables
	}
	sz, err := s.tables.Size(in)
	if err != nil {
		return requirements.Sizing{}, &InputError{Err: err}
	}
	return sz, nil
}

func (s *Service) evaluate(req Request) (Outcome, *store.Run, error) {
	flow, sizing, err := s.resolveFlow(req)
	if err != nil {
		return Outcome{}, nil, err
	}
	res, err := s.selector.ApplyHierarchy(req.Boundary, flow, req.Split)
	if err != nil {
		return Outcome{}, nil, err
	}
	run, err := store.NewRun(req.PropertyID, res)
	if err != nil {
		return Outcome{}, nil, err
	}
	s.log.Debug("selection finished",
		zap.String("property_id", req.PropertyID),
		zap.Float64("flow_gpd", flow),
		zap.Bool("success", res.Success),
		zap.String("config_type", string(res.ConfigType)),
	)
	return Outcome{
		PropertyID: req.PropertyID,
		Result:     res,
		Summary:    selection.Summarize(res),
		Sizing:     sizing,
	}, run, nil
}

func (s *Service) resolveFlow(req Request) (float64, *requirements.Sizing, error) {
	var sizing *requirements.Sizing
	if req.Dwelling != nil && s.tables != nil {
		sz, err := s.Size(*req.Dwelling)
		if err != nil {
			return 0, nil, err
		}
		sizing = &sz
	}
	switch {
	case req.FlowGPD > 0:
		return req.FlowGPD, sizing, nil
	case sizing != nil:
		return float64(sizing.Flow.FlowGPD), sizing, nil
	case req.Dwelling != nil:
		return 0, nil, ErrNoTables
	default:
		return 0, nil, ErrNoFlow
	}
}

func (s *Service) record(ctx context.Context, run *store.Run, out *Outcome) error {
	if s.runs == nil {
		return nil
	}
	if err := s.runs.SaveRun(ctx, run); err != nil {
		return eris.Wrap(err, "placer: save run")
	}
	out.RunID = run.ID.String()
	return nil
}
