package placer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbay-eng/drainfield-placer/internal/selection"
	"github.com/redbay-eng/drainfield-placer/internal/store"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `property_id,boundary,split_1,split_2,flow_gpd,bedrooms,building_sqft,homes,commercial
P-1,lot1.json,,,400,,,,
P-2,/abs/lot2.json,a.json,b.json,,3,"1,500",2,true
`)

	items, err := ReadManifest(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "P-1", items[0].PropertyID)
	assert.Equal(t, filepath.Join(dir, "lot1.json"), items[0].Boundary)
	assert.Empty(t, items[0].Split)
	assert.InDelta(t, 400.0, items[0].FlowGPD, 1e-9)
	assert.Nil(t, items[0].Dwelling)

	assert.Equal(t, "/abs/lot2.json", items[1].Boundary)
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")}, items[1].Split)
	require.NotNil(t, items[1].Dwelling)
	assert.Equal(t, 3, items[1].Dwelling.Bedrooms)
	assert.Equal(t, 1500, items[1].Dwelling.BuildingSqft)
	assert.Equal(t, 2, items[1].Dwelling.Homes)
	assert.True(t, items[1].Dwelling.Commercial)
}

func TestReadManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing column", "property_id,flow_gpd\nP-1,400\n"},
		{"empty boundary", "property_id,boundary\nP-1,\n"},
		{"bad flow", "property_id,boundary,flow_gpd\nP-1,a.json,lots\n"},
		{"bad bedrooms", "property_id,boundary,bedrooms,building_sqft\nP-1,a.json,three,1500\n"},
		{"bad commercial", "property_id,boundary,bedrooms,building_sqft,commercial\nP-1,a.json,3,1500,maybe\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadManifest(context.Background(), writeManifest(t, t.TempDir(), tt.body))
			assert.Error(t, err)
		})
	}

	_, err := ReadManifest(context.Background(), filepath.Join(t.TempDir(), "none.csv"))
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	writeBoundary(t, dir, "big.json", 40, 60)
	writeBoundary(t, dir, "small.json", 10, 10)
	path := writeManifest(t, dir, `property_id,boundary,flow_gpd
P-1,big.json,400
P-2,missing.json,400
P-3,small.json,400
P-4,big.json,
`)
	items, err := ReadManifest(context.Background(), path)
	require.NoError(t, err)

	st := testStore(t)
	s := newService(WithRunStore(st))
	results, err := s.Batch(context.Background(), items, BatchOptions{Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "P-1", results[0].Item.PropertyID)
	require.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Outcome)
	assert.True(t, results[0].Outcome.Result.Success)
	assert.NotEmpty(t, results[0].Outcome.RunID)

	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Outcome)

	require.NoError(t, results[2].Err)
	assert.Equal(t, selection.StatusFailed, results[2].Outcome.Summary.Status)
	assert.Equal(t, selection.ReasonNeedsSplit, results[2].Outcome.Result.Reason)
	assert.NotEmpty(t, results[2].Outcome.RunID)

	assert.ErrorIs(t, results[3].Err, ErrNoFlow)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestBatch_NoStoreAndEmpty(t *testing.T) {
	s := newService()
	results, err := s.Batch(context.Background(), nil, BatchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)

	dir := t.TempDir()
	items := []BatchItem{{PropertyID: "P-1", Boundary: writeBoundary(t, dir, "lot.json", 40, 60), FlowGPD: 400}}
	results, err = s.Batch(context.Background(), items, BatchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Outcome.Result.Success)
	assert.Empty(t, results[0].Outcome.RunID)
}

func TestBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newService()
	_, err := s.Batch(ctx, []BatchItem{{PropertyID: "P-1", Boundary: "x.json", FlowGPD: 400}}, BatchOptions{})
	assert.Error(t, err)
}
