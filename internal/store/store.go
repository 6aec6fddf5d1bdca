// Package store persists placement runs and updates septic system records.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/redbay-eng/drainfield-placer/internal/geometry"
	"github.com/redbay-eng/drainfield-placer/internal/resilience"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
)

// ErrNotFound is returned when a run id has no row.
var ErrNotFound = eris.New("store: not found")

// Run is one persisted selection call.
type Run struct {
	ID         uuid.UUID       `json:"id"`
	PropertyID string          `json:"property_id,omitempty"`
	FlowGPD    float64         `json:"flow_gpd"`
	ConfigType string          `json:"config_type,omitempty"`
	Status     string          `json:"status"`
	Result     json.RawMessage `json:"result"`
	// Footprint is the placed shoulder polygons as an EWKB multipolygon.
	Footprint []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRun records res for propertyID with a fresh id.
func NewRun(propertyID string, res selection.Result) (*Run, error) {
	body, err := json.Marshal(res)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal result")
	}
	polys := make([]geometry.Polygon, 0, 2)
	for _, p := range res.Placements() {
		polys = append(polys, p.Polygon)
	}
	footprint, err := EncodeFootprint(polys...)
	if err != nil {
		return nil, err
	}
	return &Run{
		ID:         uuid.New(),
		PropertyID: propertyID,
		FlowGPD:    res.FlowGPD,
		ConfigType: string(res.ConfigType),
		Status:     selection.Summarize(res).Status,
		Result:     body,
		Footprint:  footprint,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// DecodeResult unmarshals the stored result.
func (r *Run) DecodeResult() (selection.Result, error) {
	var res selection.Result
	if err := json.Unmarshal(r.Result, &res); err != nil {
		return res, eris.Wrap(err, "store: unmarshal result")
	}
	return res, nil
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	PropertyID string `json:"property_id,omitempty"`
	Status     string `json:"status,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// RunStore is the run history backend.
type RunStore interface {
	SaveRun(ctx context.Context, r *Run) error
	SaveRuns(ctx context.Context, runs []Run) (int64, error)
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and tunes the run store.
type Config struct {
	Driver      string                 `mapstructure:"driver"`
	DatabaseURL string                 `mapstructure:"database_url"`
	Retry       resilience.RetryConfig `mapstructure:"retry"`
}

// Open connects to the configured driver: "sqlite" (default) or
// "postgres".
func Open(ctx context.Context, cfg Config) (RunStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		st, err := NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres", "postgresql", "pgx":
		st, err := NewPostgres(ctx, cfg.DatabaseURL, cfg.Retry)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
