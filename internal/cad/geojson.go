package cad

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/redbay-eng/drainfield-placer/internal/geometry"
)

// Feature is one polygon to export with its properties.
type Feature struct {
	ID         string
	Polygon    geometry.Polygon
	Properties map[string]any
}

// EncodeGeoJSON renders the features as a GeoJSON FeatureCollection. Empty
// polygons are skipped.
func EncodeGeoJSON(features ...Feature) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(features))}
	for _, f := range features {
		if f.Polygon.IsEmpty() {
			continue
		}
		g := f.Polygon.ToGeom()
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         f.ID,
			BBox:       g.Bounds(),
			Geometry:   g,
			Properties: f.Properties,
		})
	}
	b, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "cad: encode geojson")
	}
	return b, nil
}
