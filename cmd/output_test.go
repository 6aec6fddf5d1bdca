package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
	"github.com/redbay-eng/drainfield-placer/internal/geometry"
	"github.com/redbay-eng/drainfield-placer/internal/placer"
)

func selectOutcome(t *testing.T, boundary geometry.Polygon) placer.Outcome {
	t.Helper()
	env, err := initEnv(context.Background(), testConfig(t), false)
	require.NoError(t, err)
	t.Cleanup(env.Close)
	out, err := env.Service.Select(context.Background(), placer.Request{
		PropertyID: "P-9",
		Boundary:   boundary,
		FlowGPD:    400,
	})
	require.NoError(t, err)
	return out
}

func TestWriteOutputs_AllArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := writeBoundaryFile(t, dir, "lot.json", 40, 60)
	boundary, err := cad.LoadBoundary(path, cad.DefaultBoundaryLayer)
	require.NoError(t, err)

	req := placer.Request{PropertyID: "P-9", Boundary: boundary}
	out := selectOutcome(t, boundary)
	require.True(t, out.Result.Success)

	flags := outputFlags{
		CAD:     filepath.Join(dir, "placed.json"),
		GeoJSON: filepath.Join(dir, "placed.geojson"),
		PDF:     filepath.Join(dir, "placed.pdf"),
	}
	require.NoError(t, writeOutputs(flags, path, cad.DefaultBoundaryLayer, req, out))

	doc, err := cad.ReadFile(flags.CAD)
	require.NoError(t, err)
	require.Len(t, doc.Polylines, 2)
	assert.Equal(t, cad.DefaultBoundaryLayer, doc.Polylines[0].Layer)
	assert.Equal(t, cad.PlacementSource, doc.Polylines[1].Metadata["source"])

	raw, err := os.ReadFile(flags.GeoJSON)
	require.NoError(t, err)
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         string         `json:"id"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "boundary", fc.Features[0].Properties["kind"])
	assert.Equal(t, "drainfield", fc.Features[1].Properties["kind"])
	assert.Equal(t, "trench", fc.Features[1].Properties["config_type"])

	pdf, err := os.ReadFile(flags.PDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestWriteOutputs_NoArtifacts(t *testing.T) {
	out := selectOutcome(t, geometry.NewRect(0, 0, 40, 60))
	assert.NoError(t, writeOutputs(outputFlags{}, "unused.json", "", placer.Request{}, out))
}

func TestWriteOutputs_CADRequiresPlacement(t *testing.T) {
	dir := t.TempDir()
	path := writeBoundaryFile(t, dir, "tiny.json", 5, 5)
	boundary := geometry.NewRect(0, 0, 5, 5)
	out := selectOutcome(t, boundary)
	require.False(t, out.Result.Success)

	err := writeOutputs(outputFlags{CAD: filepath.Join(dir, "out.json")}, path, "",
		placer.Request{Boundary: boundary}, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no placement")
}

func TestBoundaryDocument_SynthesizesForDXF(t *testing.T) {
	boundary := geometry.NewRect(0, 0, 10, 20)
	doc, err := boundaryDocument("/nonexistent/lot.DXF", "", boundary)
	require.NoError(t, err)
	require.Len(t, doc.Polylines, 1)
	assert.Equal(t, cad.DefaultBoundaryLayer, doc.Polylines[0].Layer)
	assert.True(t, doc.Polylines[0].Closed)
	assert.Len(t, doc.Polylines[0].Points, 4)
}

func TestBoundaryDocument_ReadsJSON(t *testing.T) {
	path := writeBoundaryFile(t, t.TempDir(), "lot.json", 10, 20)
	doc, err := boundaryDocument(path, "", geometry.Polygon{})
	require.NoError(t, err)
	assert.Len(t, doc.Polylines, 1)
}

func TestDwellingInput(t *testing.T) {
	assert.Nil(t, dwellingInput(0, 0, 1, false))
	in := dwellingInput(3, 1800, 2, true)
	require.NotNil(t, in)
	assert.Equal(t, 3, in.Bedrooms)
	assert.Equal(t, 1800, in.BuildingSqft)
	assert.Equal(t, 2, in.Homes)
	assert.True(t, in.Commercial)
}

func TestPrintJSON_Indents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}
