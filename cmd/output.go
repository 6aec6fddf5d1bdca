package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
	"github.com/redbay-eng/drainfield-placer/internal/geometry"
	"github.com/redbay-eng/drainfield-placer/internal/placer"
	"github.com/redbay-eng/drainfield-placer/internal/report"
	"github.com/redbay-eng/drainfield-placer/internal/requirements"
)

// outputFlags are the optional artifacts a selection can write.
type outputFlags struct {
	CAD     string
	GeoJSON string
	PDF     string
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode output")
	}
	return nil
}

// boundaryDocument returns the CAD document to draw placements into. CAD JSON
// boundaries keep their original drawing; DXF and shapefile boundaries get
// a document holding only the boundary polyline.
func boundaryDocument(path, layer string, boundary geometry.Polygon) (cad.Document, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".dxf" && ext != ".shp" {
		return cad.ReadFile(path)
	}
	if layer == "" {
		layer = cad.DefaultBoundaryLayer
	}
	return cad.Document{Polylines: []cad.Polyline{{
		Layer:  layer,
		Closed: true,
		Points: boundary.Points(),
	}}}, nil
}

// writeOutputs writes the requested CAD, GeoJSON and PDF artifacts for out.
func writeOutputs(flags outputFlags, boundaryPath, layer string, req placer.Request, out placer.Outcome) error {
	placements := out.Result.Placements()

	if flags.CAD != "" {
		if len(placements) == 0 {
			return eris.New("no placement to write: selection failed")
		}
		doc, err := boundaryDocument(boundaryPath, layer, req.Boundary)
		if err != nil {
			return err
		}
		pls := make([]cad.Placement, 0, len(placements))
		for _, p := range placements {
			pls = append(pls, p.CAD())
		}
		if err := cad.WriteFile(flags.CAD, cad.Place(doc, pls...)); err != nil {
			return err
		}
	}

	if flags.GeoJSON != "" {
		if err := writeGeoJSON(flags.GeoJSON, req, out); err != nil {
			return err
		}
	}

	if flags.PDF != "" {
		sheet := report.PlacementSheet{
			PropertyID: req.PropertyID,
			RunID:      out.RunID,
			Boundaries: req.Boundaries(),
			Result:     out.Result,
			Sizing:     out.Sizing,
			Generated:  time.Now(),
		}
		if err := report.WritePDFFile(flags.PDF, sheet); err != nil {
			return err
		}
	}
	return nil
}

func writeGeoJSON(path string, req placer.Request, out placer.Outcome) error {
	features := make([]cad.Feature, 0, 4)
	for i, b := range req.Boundaries() {
		kind := "boundary"
		if i > 0 {
			kind = fmt.Sprintf("split_boundary_%d", i)
		}
		features = append(features, cad.Feature{
			ID:         kind,
			Polygon:    b,
			Properties: map[string]any{"kind": kind, "area_sqft": b.Area()},
		})
	}
	for i, p := range out.Result.Placements() {
		features = append(features, cad.Feature{
			ID:      fmt.Sprintf("drainfield_%d", i+1),
			Polygon: p.Polygon,
			Properties: map[string]any{
				"kind":        "drainfield",
				"config_type": string(out.Result.ConfigType),
				"product":     p.Product,
				"pattern":     p.Pattern,
				"rotation":    p.Rotation,
				"credit_sqft": p.Metadata.CreditSqft,
			},
		})
	}
	b, err := cad.EncodeGeoJSON(features...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

// dwellingInput returns nil when neither bedrooms nor building size is set.
func dwellingInput(bedrooms, sqft, homes int, commercial bool) *requirements.SizingInput {
	if bedrooms == 0 && sqft == 0 {
		return nil
	}
	return &requirements.SizingInput{
		Bedrooms:     bedrooms,
		BuildingSqft: sqft,
		Homes:        homes,
		Commercial:   commercial,
	}
}
