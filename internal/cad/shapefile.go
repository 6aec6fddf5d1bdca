package cad

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/redbay-eng/drainfield-placer/internal/geometry"
)

// ReadShapefileBoundary returns the outer ring of the first polygon record.
func ReadShapefileBoundary(path string) (geometry.Polygon, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return geometry.Polygon{}, eris.Wrapf(err, "cad: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly.NumParts == 0 {
			continue
		}
		return geometry.NewPolygon(firstRing(poly))
	}
	return geometry.Polygon{}, eris.Wrapf(ErrNoBoundary, "shapefile %s", path)
}

func firstRing(p *shp.Polygon) []geometry.Point {
	end := int32(len(p.Points))
	if p.NumParts > 1 {
		end = p.Parts[1]
	}
	start := p.Parts[0]
	pts := make([]geometry.Point, 0, end-start)
	for i := start; i < end; i++ {
		pts = append(pts, geometry.Point{X: p.Points[i].X, Y: p.Points[i].Y})
	}
	return pts
}
