package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbay-eng/drainfield-placer/internal/catalog"
	"github.com/redbay-eng/drainfield-placer/internal/geometry"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
)

func trenchResult() selection.Result {
	return selection.Result{
		Success:    true,
		ConfigType: selection.Trench,
		Placement: &selection.Placement{
			Product:  "mps9",
			Pattern:  "trench_a",
			Metadata: catalog.Metadata{CreditSqft: 600, IsRectangular: true, NumPieces: 20, UnobstructedArea: 900},
			Polygon:  geometry.NewRect(0, 0, 30, 20),
		},
		FlowGPD:      400,
		RequiredSqft: 500,
		Attempted:    []selection.ConfigType{selection.Trench},
	}
}

func splitResult() selection.Result {
	return selection.Result{
		Success:    true,
		ConfigType: selection.SplitBed,
		Split: &selection.Split{
			First:  selection.Placement{Product: "arc24", Polygon: geometry.NewRect(0, 0, 10, 10), Metadata: catalog.Metadata{UnobstructedArea: 300}},
			Second: selection.Placement{Product: "arc24", Polygon: geometry.NewRect(20, 0, 30, 10), Metadata: catalog.Metadata{UnobstructedArea: 250}},
		},
		FlowGPD:          600,
		RequiredSqftEach: 500,
	}
}

func TestNewRun(t *testing.T) {
	run, err := NewRun("P-100", trenchResult())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.Equal(t, "P-100", run.PropertyID)
	assert.Equal(t, selection.StatusSuccess, run.Status)
	assert.Equal(t, "trench", run.ConfigType)
	assert.InDelta(t, 400.0, run.FlowGPD, 1e-9)
	assert.NotEmpty(t, run.Footprint)

	res, err := run.DecodeResult()
	require.NoError(t, err)
	require.NotNil(t, res.Placement)
	assert.Equal(t, "trench_a", res.Placement.Pattern)
	assert.InDelta(t, 600.0, res.Placement.Polygon.Area(), 1e-9)
}

func TestNewRun_Failure(t *testing.T) {
	run, err := NewRun("", selection.Result{Reason: selection.ReasonNeedsSplit, Message: selection.MsgNeedsSplit})
	require.NoError(t, err)
	assert.Equal(t, selection.StatusFailed, run.Status)
	assert.Nil(t, run.Footprint)
}

func TestFootprint_RoundTrip(t *testing.T) {
	res := splitResult()
	b, err := EncodeFootprint(res.Split.First.Polygon, geometry.Polygon{}, res.Split.Second.Polygon)
	require.NoError(t, err)

	polys, err := DecodeFootprint(b)
	require.NoError(t, err)
	require.Len(t, polys, 2)
	assert.InDelta(t, 100.0, polys[0].Area(), 1e-9)
	c := polys[1].Centroid()
	assert.InDelta(t, 25.0, c.X, 1e-9)
	assert.InDelta(t, 5.0, c.Y, 1e-9)

	polys, err = DecodeFootprint(nil)
	require.NoError(t, err)
	assert.Nil(t, polys)

	_, err = DecodeFootprint([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"})
	assert.Error(t, err)
}

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestOpen_SQLite(t *testing.T) {
	st, err := Open(context.Background(), Config{DatabaseURL: filepath.Join(t.TempDir(), "open.db")})
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	assert.IsType(t, &SQLiteStore{}, st)
}

func TestSQLite_SaveAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := NewRun("P-1", trenchResult())
	require.NoError(t, err)
	require.NoError(t, st.SaveRun(ctx, run))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "P-1", got.PropertyID)
	assert.Equal(t, selection.StatusSuccess, got.Status)
	assert.JSONEq(t, string(run.Result), string(got.Result))
	assert.Equal(t, run.Footprint, got.Footprint)
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Second)

	_, err = st.GetRun(ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var runs []Run
	for i, res := range []selection.Result{trenchResult(), splitResult(), {Reason: selection.ReasonNeedsRedesign}} {
		r, err := NewRun("P-7", res)
		require.NoError(t, err)
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		runs = append(runs, *r)
	}
	other, err := NewRun("P-8", trenchResult())
	require.NoError(t, err)
	runs = append(runs, *other)

	n, err := st.SaveRuns(ctx, runs)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	got, err := st.ListRuns(ctx, RunFilter{PropertyID: "P-7"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, runs[2].ID, got[0].ID, "newest first")

	got, err = st.ListRuns(ctx, RunFilter{Status: selection.StatusSuccessSplit})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "split_bed", got[0].ConfigType)

	got, err = st.ListRuns(ctx, RunFilter{PropertyID: "P-7", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, runs[1].ID, got[0].ID)

	n, err = st.SaveRuns(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_DuplicateID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := NewRun("P-1", trenchResult())
	require.NoError(t, err)
	require.NoError(t, st.SaveRun(ctx, run))
	assert.Error(t, st.SaveRun(ctx, run))
}

func TestNewSQLite_EmptyPath(t *testing.T) {
	_, err := NewSQLite("")
	assert.Error(t, err)
}
