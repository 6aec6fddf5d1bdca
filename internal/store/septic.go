package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/catalog"
	"github.com/redbay-eng/drainfield-placer/internal/db"
	"github.com/redbay-eng/drainfield-placer/internal/geometry"
	"github.com/redbay-eng/drainfield-placer/internal/resilience"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
)

// Drainfield rate labels stored with the record.
const (
	RateTrench = "0.8/Sand"
	RateBed    = "0.6/Sand"
)

// Lot flow allowances in gallons per day per acre.
const (
	MultiplierPrivateWell = 1500
	MultiplierPublicWater = 2500
)

// SepticRecord is the system-sizing section of the permit application row
// identified by PropertyID.
type SepticRecord struct {
	PropertyID            string  `json:"property_id"`
	NetAcreage            float64 `json:"net_acreage"`
	FlowGPD               float64 `json:"flow_gpd"`
	AuthorizedFlow        float64 `json:"authorized_flow"`
	GPDMultiplier         int     `json:"gpd_multiplier"`
	UnobstructedAvailable float64 `json:"unobstructed_area_available"`
	UnobstructedRequired  float64 `json:"unobstructed_area_required"`
	Benchmark             *string `json:"benchmark,omitempty"`
	Rate                  *string `json:"rate,omitempty"`
	IsTrench              bool    `json:"is_trench"`
	IsBed                 bool    `json:"is_bed"`
}

// RecordFromResult fills a record from a selection. The required
// unobstructed area is the sum over placed patterns; callers with a
// tabulated value may overwrite it.
func RecordFromResult(propertyID string, res selection.Result, boundary geometry.Polygon, netAcreage float64, multiplier int) SepticRecord {
	rec := SepticRecord{
		PropertyID:            propertyID,
		NetAcreage:            netAcreage,
		FlowGPD:               res.FlowGPD,
		AuthorizedFlow:        netAcreage * float64(multiplier),
		GPDMultiplier:         multiplier,
		UnobstructedAvailable: boundary.Area(),
	}
	for _, p := range res.Placements() {
		rec.UnobstructedRequired += p.Metadata.UnobstructedArea
	}
	if !res.Success {
		return rec
	}
	rate := RateBed
	if res.ConfigType.Class() == catalog.Trench {
		rate = RateTrench
		rec.IsTrench = true
	} else {
		rec.IsBed = true
	}
	rec.Rate = &rate
	return rec
}

// BenchmarkCore is the survey data read back from a record.
type BenchmarkCore struct {
	Benchmark *string `json:"benchmark_text"`
	CoreDepth *string `json:"core_depth"`
	// CoreAboveBelow is "ABOVE", "BELOW" or empty when unset.
	CoreAboveBelow string `json:"core_above_below,omitempty"`
}

// SepticRecordStore updates rows of the p3ofdep4015 table.
type SepticRecordStore struct {
	pool  db.Pool
	retry resilience.RetryConfig
	log   *zap.Logger
}

// NewSepticRecordStore uses pool for all statements.
func NewSepticRecordStore(pool db.Pool, retry resilience.RetryConfig) *SepticRecordStore {
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("postgres.septic_record")
	}
	return &SepticRecordStore{
		pool:  pool,
		retry: retry,
		log:   zap.L().With(zap.String("component", "store.septic")),
	}
}

const updateSepticRecord = `UPDATE "p3ofdep4015"
SET "page3_09" = $1,
	"page3_10" = $2,
	"page3_12" = $3,
	"page3_13" = $4,
	"page3_14" = $5,
	"page3_15" = $6,
	"page3_16" = $7,
	"page3_121" = $8,
	"page3_123" = $9,
	"page3_124" = $10
WHERE "page3_06" = $11`

// Update writes rec. It returns ErrNotFound when no row has the property id.
func (s *SepticRecordStore) Update(ctx context.Context, rec SepticRecord) error {
	if rec.PropertyID == "" {
		return eris.New("septic: empty property id")
	}
	affected, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (int64, error) {
		tag, err := s.pool.Exec(ctx, updateSepticRecord,
			rec.NetAcreage,
			rec.FlowGPD,
			rec.AuthorizedFlow,
			strconv.Itoa(rec.GPDMultiplier),
			rec.UnobstructedAvailable,
			rec.UnobstructedRequired,
			rec.Benchmark,
			rec.Rate,
			rec.IsTrench,
			rec.IsBed,
			rec.PropertyID,
		)
		if err != nil {
			return 0, err
		}
		return tag.RowsAffected(), nil
	})
	if err != nil {
		return eris.Wrapf(err, "septic: update record %s", rec.PropertyID)
	}
	if affected == 0 {
		return eris.Wrapf(ErrNotFound, "septic: record %s", rec.PropertyID)
	}
	s.log.Info("septic record updated",
		zap.String("property_id", rec.PropertyID),
		zap.Float64("flow_gpd", rec.FlowGPD),
	)
	return nil
}

// BenchmarkCore reads the benchmark text and soil core data for a property.
func (s *SepticRecordStore) BenchmarkCore(ctx context.Context, propertyID string) (*BenchmarkCore, error) {
	var (
		bc    BenchmarkCore
		above *bool
	)
	err := s.pool.QueryRow(ctx,
		`SELECT "page3_16"::text, "page3_17"::text, "page3_19" FROM "p3ofdep4015" WHERE "page3_06" = $1`,
		propertyID,
	).Scan(&bc.Benchmark, &bc.CoreDepth, &above)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "septic: record %s", propertyID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "septic: read benchmark %s", propertyID)
	}
	if above != nil {
		bc.CoreAboveBelow = "BELOW"
		if *above {
			bc.CoreAboveBelow = "ABOVE"
		}
	}
	return &bc, nil
}
