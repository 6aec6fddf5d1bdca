// Package cad reads and writes the CAD JSON exchange format used for
// boundaries and drainfield patterns, imports boundaries from DXF and
// shapefiles, and exports placements as GeoJSON.
package cad

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/redbay-eng/drainfield-placer/internal/geometry"
)

// Polyline is one CAD polyline. Keys other than the known ones survive a
// decode/encode round trip.
type Polyline struct {
	Layer    string           `json:"layer,omitempty"`
	Closed   bool             `json:"closed"`
	Points   []geometry.Point `json:"points"`
	Metadata map[string]any   `json:"metadata,omitempty"`

	extra map[string]json.RawMessage
}

// Document is a CAD JSON drawing: a list of polylines plus whatever else the
// producing tool put at the top level.
type Document struct {
	Polylines []Polyline

	extra map[string]json.RawMessage
}

var polylineKeys = []string{"layer", "closed", "points", "metadata"}

// UnmarshalJSON decodes the known fields and keeps the rest.
func (p *Polyline) UnmarshalJSON(b []byte) error {
	type known struct {
		Layer    string           `json:"layer"`
		Closed   bool             `json:"closed"`
		Points   []geometry.Point `json:"points"`
		Metadata map[string]any   `json:"metadata"`
	}
	var k known
	if err := json.Unmarshal(b, &k); err != nil {
		return eris.Wrap(err, "cad: decode polyline")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return eris.Wrap(err, "cad: decode polyline")
	}
	for _, key := range polylineKeys {
		delete(raw, key)
	}
	*p = Polyline{Layer: k.Layer, Closed: k.Closed, Points: k.Points, Metadata: k.Metadata}
	if len(raw) > 0 {
		p.extra = raw
	}
	return nil
}

// MarshalJSON writes the known fields over any preserved extras.
func (p Polyline) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.extra)+4)
	for k, v := range p.extra {
		out[k] = v
	}
	if p.Layer != "" {
		out["layer"] = p.Layer
	}
	out["closed"] = p.Closed
	pts := p.Points
	if pts == nil {
		pts = []geometry.Point{}
	}
	out["points"] = pts
	if len(p.Metadata) > 0 {
		out["metadata"] = p.Metadata
	}
	return json.Marshal(out)
}

// Clone returns a deep copy of the polyline's points and metadata.
func (p Polyline) Clone() Polyline {
	c := p
	c.Points = append([]geometry.Point(nil), p.Points...)
	if p.Metadata != nil {
		c.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	if p.extra != nil {
		c.extra = make(map[string]json.RawMessage, len(p.extra))
		for k, v := range p.extra {
			c.extra[k] = v
		}
	}
	return c
}

// Polygon converts the polyline vertices into a polygon.
func (p Polyline) Polygon() (geometry.Polygon, error) {
	poly, err := geometry.NewPolygon(p.Points)
	if err != nil {
		return geometry.Polygon{}, eris.Wrapf(err, "cad: polyline on layer %q", p.Layer)
	}
	return poly, nil
}

// UnmarshalJSON decodes the polylines and keeps every other top-level key.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return eris.Wrap(err, "cad: decode document")
	}
	var polylines []Polyline
	if msg, ok := raw["polylines"]; ok {
		if err := json.Unmarshal(msg, &polylines); err != nil {
			return eris.Wrap(err, "cad: decode polylines")
		}
		delete(raw, "polylines")
	}
	*d = Document{Polylines: polylines}
	if len(raw) > 0 {
		d.extra = raw
	}
	return nil
}

// MarshalJSON always writes a polylines array.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.extra)+1)
	for k, v := range d.extra {
		out[k] = v
	}
	polylines := d.Polylines
	if polylines == nil {
		polylines = []Polyline{}
	}
	out["polylines"] = polylines
	return json.Marshal(out)
}

// Clone returns a deep copy so callers can append without touching the source.
func (d Document) Clone() Document {
	c := Document{Polylines: make([]Polyline, len(d.Polylines))}
	for i, p := range d.Polylines {
		c.Polylines[i] = p.Clone()
	}
	if d.extra != nil {
		c.extra = make(map[string]json.RawMessage, len(d.extra))
		for k, v := range d.extra {
			c.extra[k] = v
		}
	}
	return c
}

// Decode parses a CAD JSON document.
func Decode(b []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return Document{}, eris.Wrap(err, "cad: parse document")
	}
	return d, nil
}

// ReadFile loads a CAD JSON document from disk.
func ReadFile(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, eris.Wrapf(err, "cad: read %s", path)
	}
	return Decode(b)
}

// WriteFile writes doc as indented JSON.
func WriteFile(path string, doc Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "cad: encode document")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return eris.Wrapf(err, "cad: write %s", path)
	}
	return nil
}
