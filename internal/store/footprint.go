package store

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/redbay-eng/drainfield-placer/internal/geometry"
)

// EncodeFootprint encodes polys as a little-endian EWKB multipolygon. Empty
// polygons are skipped; no polygons yields nil.
func EncodeFootprint(polys ...geometry.Polygon) ([]byte, error) {
	mp := geom.NewMultiPolygon(geom.XY)
	for _, p := range polys {
		if p.IsEmpty() {
			continue
		}
		if err := mp.Push(p.ToGeom()); err != nil {
			return nil, eris.Wrap(err, "store: build footprint")
		}
	}
	if mp.NumPolygons() == 0 {
		return nil, nil
	}
	b, err := ewkb.Marshal(mp, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode footprint")
	}
	return b, nil
}

// DecodeFootprint reverses EncodeFootprint.
func DecodeFootprint(b []byte) ([]geometry.Polygon, error) {
	if len(b) == 0 {
		return nil, nil
	}
	g, err := ewkb.Unmarshal(b)
	if err != nil {
		return nil, eris.Wrap(err, "store: decode footprint")
	}
	mp, ok := g.(*geom.MultiPolygon)
	if !ok {
		return nil, eris.Errorf("store: footprint is %T, want multipolygon", g)
	}
	out := make([]geometry.Polygon, 0, mp.NumPolygons())
	for i := range mp.NumPolygons() {
		p, err := geometry.FromGeom(mp.Polygon(i))
		if err != nil {
			return nil, eris.Wrap(err, "store: footprint polygon")
		}
		out = append(out, p)
	}
	return out, nil
}
