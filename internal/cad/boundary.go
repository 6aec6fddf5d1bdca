package cad

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/geometry"
)

// DefaultBoundaryLayer is the layer user-drawn boundaries live on.
const DefaultBoundaryLayer = "polyline_boundary"

var (
	// ErrNoBoundary is returned when a drawing has no polyline on the boundary layer.
	ErrNoBoundary = eris.New("cad: no boundary polyline")
	// ErrNoShoulder is returned when a pattern has no closed polyline.
	ErrNoShoulder = eris.New("cad: no closed shoulder polyline")
)

// ParseBoundary returns the first polyline on layer as a polygon. An empty
// layer means DefaultBoundaryLayer.
func ParseBoundary(doc Document, layer string) (geometry.Polygon, error) {
	if layer == "" {
		layer = DefaultBoundaryLayer
	}
	var found []Polyline
	for _, p := range doc.Polylines {
		if p.Layer == layer {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return geometry.Polygon{}, eris.Wrapf(ErrNoBoundary, "layer %q", layer)
	}
	if len(found) > 1 {
		zap.L().Warn("cad: multiple boundary polylines, using first",
			zap.String("layer", layer),
			zap.Int("count", len(found)),
		)
	}
	return found[0].Polygon()
}

// Shoulder returns the first closed polyline, which outlines a pattern's
// installed footprint.
func Shoulder(polylines []Polyline) (Polyline, error) {
	for _, p := range polylines {
		if p.Closed {
			return p, nil
		}
	}
	return Polyline{}, ErrNoShoulder
}

// LoadBoundary reads a boundary from a CAD JSON, DXF or shapefile path,
// choosing the reader by extension.
func LoadBoundary(path, layer string) (geometry.Polygon, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dxf":
		return ReadDXFBoundary(path)
	case ".shp":
		return ReadShapefileBoundary(path)
	default:
		doc, err := ReadFile(path)
		if err != nil {
			return geometry.Polygon{}, err
		}
		return ParseBoundary(doc, layer)
	}
}
