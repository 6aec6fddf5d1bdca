package placer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
	"github.com/redbay-eng/drainfield-placer/internal/catalog"
	"github.com/redbay-eng/drainfield-placer/internal/fetcher"
	"github.com/redbay-eng/drainfield-placer/internal/geometry"
	"github.com/redbay-eng/drainfield-placer/internal/requirements"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
	"github.com/redbay-eng/drainfield-placer/internal/store"
)

func trenchPattern() catalog.Pattern {
	return catalog.Pattern{
		Name:     "trench_2x5",
		Product:  "mps9",
		Class:    catalog.Trench,
		Metadata: catalog.Metadata{CreditSqft: 600, IsRectangular: true, NumPieces: 10},
		Polylines: []cad.Polyline{
			{Layer: "shoulder", Closed: true, Points: []geometry.Point{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 25}, {X: 0, Y: 25}}},
		},
	}
}

func newService(opts ...Option) *Service {
	sel := selection.New(catalog.New(catalog.DefaultProducts(), []catalog.Pattern{trenchPattern()}))
	return New(sel, opts...)
}

func testTables(t *testing.T) *requirements.Tables {
	t.Helper()
	flow, err := requirements.NewFlowTable(fetcher.NewTable(
		[]string{"bedrooms", "square_footage_min", "square_footage_max", "flow_gpd"},
		[][]string{{"3", "0", "2250", "300"}, {"4", "0", "3300", "400"}},
	))
	require.NoError(t, err)
	tank, err := requirements.NewTankTable(fetcher.NewTable(
		[]string{"min_flow_gpd", "max_flow_gpd", "septic_tank_min_capacity", "pump_tank_min_residential", "pump_tank_min_commercial"},
		[][]string{{"100", "300", "900", "150", "225"}, {"301", "400", "1050", "150", "225"}},
	))
	require.NoError(t, err)
	return &requirements.Tables{Flow: flow, Tank: tank}
}

func testStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func writeBoundary(t *testing.T, dir, name string, w, h float64) string {
	t.Helper()
	body := fmt.Sprintf(`{"polylines":[{"layer":"polyline_boundary","closed":true,"points":[
		{"x":0,"y":0},{"x":%g,"y":0},{"x":%g,"y":%g},{"x":0,"y":%g}]}]}`, w, w, h, h)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestSelect_WithFlow(t *testing.T) {
	s := newService()
	out, err := s.Select(context.Background(), Request{
		PropertyID: "P-1",
		Boundary:   geometry.NewRect(0, 0, 40, 60),
		FlowGPD:    400,
	})
	require.NoError(t, err)
	assert.True(t, out.Result.Success)
	assert.Equal(t, selection.Trench, out.Result.ConfigType)
	assert.Equal(t, selection.StatusSuccess, out.Summary.Status)
	assert.Equal(t, "P-1", out.PropertyID)
	assert.Empty(t, out.RunID)
	assert.Nil(t, out.Sizing)
}

func TestSelect_SizesDwelling(t *testing.T) {
	s := newService(WithTables(testTables(t)))
	out, err := s.Select(context.Background(), Request{
		Boundary: geometry.NewRect(0, 0, 40, 60),
		Dwelling: &requirements.SizingInput{Bedrooms: 4, BuildingSqft: 2000},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Sizing)
	assert.Equal(t, 400, out.Sizing.Flow.FlowGPD)
	assert.Equal(t, 1050, out.Sizing.SepticTank)
	assert.InDelta(t, 400.0, out.Result.FlowGPD, 1e-9)
	assert.True(t, out.Result.Success)
}

func TestSelect_ExplicitFlowWinsOverDwelling(t *testing.T) {
	s := newService(WithTables(testTables(t)))
	out, err := s.Select(context.Background(), Request{
		Boundary: geometry.NewRect(0, 0, 40, 60),
		FlowGPD:  300,
		Dwelling: &requirements.SizingInput{Bedrooms: 4, BuildingSqft: 2000},
	})
	require.NoError(t, err)
	assert.InDelta(t, 300.0, out.Result.FlowGPD, 1e-9)
	require.NotNil(t, out.Sizing)
	assert.Equal(t, 400, out.Sizing.Flow.FlowGPD)
}

func TestSelect_FlowErrors(t *testing.T) {
	s := newService()
	_, err := s.Select(context.Background(), Request{Boundary: geometry.NewRect(0, 0, 40, 60)})
	assert.True(t, errors.Is(err, ErrNoFlow))

	_, err = s.Select(context.Background(), Request{
		Boundary: geometry.NewRect(0, 0, 40, 60),
		Dwelling: &requirements.SizingInput{Bedrooms: 3, BuildingSqft: 1500},
	})
	assert.True(t, errors.Is(err, ErrNoTables))

	_, err = s.Size(requirements.SizingInput{Bedrooms: 3})
	assert.True(t, errors.Is(err, ErrNoTables))
}

func TestSelect_InvalidBoundary(t *testing.T) {
	s := newService()
	bowtie := geometry.MustPolygon(
		geometry.Point{X: 0, Y: 0}, geometry.Point{X: 10, Y: 10},
		geometry.Point{X: 10, Y: 0}, geometry.Point{X: 0, Y: 10},
	)
	_, err := s.Select(context.Background(), Request{Boundary: bowtie, FlowGPD: 400})
	var verr *geometry.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, geometry.MsgInvalidBoundary, verr.Message)
}

func TestSelect_RecordsRun(t *testing.T) {
	st := testStore(t)
	s := newService(WithRunStore(st))
	out, err := s.Select(context.Background(), Request{
		PropertyID: "P-2",
		Boundary:   geometry.NewRect(0, 0, 40, 60),
		FlowGPD:    400,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.RunID)

	run, err := st.GetRun(context.Background(), uuid.MustParse(out.RunID))
	require.NoError(t, err)
	assert.Equal(t, "P-2", run.PropertyID)
	assert.Equal(t, selection.StatusSuccess, run.Status)
	assert.NotEmpty(t, run.Footprint)
}

func TestPlace(t *testing.T) {
	st := testStore(t)
	s := newService(WithRunStore(st))

	out, err := s.Place(context.Background(), PlaceRequest{
		PropertyID:   "P-3",
		Boundary:     geometry.NewRect(0, 0, 40, 60),
		RequiredSqft: 500,
	})
	require.NoError(t, err)
	assert.True(t, out.Result.Success)
	assert.Equal(t, []selection.ConfigType{selection.Trench}, out.Result.Attempted)
	assert.NotEmpty(t, out.RunID)

	out, err = s.Place(context.Background(), PlaceRequest{
		Boundary:     geometry.NewRect(0, 0, 40, 60),
		RequiredSqft: 700,
		ConfigType:   selection.Trench,
	})
	require.NoError(t, err)
	assert.False(t, out.Result.Success)
	assert.Equal(t, selection.NoFitReason(selection.Trench), out.Result.Reason)

	_, err = s.Place(context.Background(), PlaceRequest{Boundary: geometry.NewRect(0, 0, 40, 60)})
	assert.Error(t, err)
	_, err = s.Place(context.Background(), PlaceRequest{
		Boundary:     geometry.NewRect(0, 0, 40, 60),
		RequiredSqft: 500,
		ConfigType:   "mound",
	})
	assert.Error(t, err)
}

func TestRequestBoundaries(t *testing.T) {
	r := Request{
		Boundary: geometry.NewRect(0, 0, 1, 1),
		Split:    []geometry.Polygon{geometry.NewRect(2, 2, 3, 3), geometry.NewRect(4, 4, 5, 5)},
	}
	assert.Len(t, r.Boundaries(), 3)
	assert.Len(t, Request{Boundary: geometry.NewRect(0, 0, 1, 1)}.Boundaries(), 1)
}
