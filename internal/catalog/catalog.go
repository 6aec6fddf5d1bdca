// Package catalog holds the prefabricated drainfield patterns, grouped by
// product and configuration class. A Catalog is built once and never
// modified, so it can be shared freely between goroutines.
package catalog

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
	"github.com/redbay-eng/drainfield-placer/internal/geometry"
)

// Class is a configuration class.
type Class string

// Classes.
const (
	Bed    Class = "bed"
	Trench Class = "trench"
)

// Classes lists every class in load order.
var Classes = []Class{Bed, Trench}

// Metadata is the certified data attached to a pattern.
type Metadata struct {
	CreditSqft       float64 `json:"credit_sqft" yaml:"credit_sqft"`
	IsRectangular    bool    `json:"is_rectangular" yaml:"is_rectangular"`
	NumPieces        int     `json:"num_pieces" yaml:"num_pieces"`
	UnobstructedArea float64 `json:"unobstructed_area" yaml:"unobstructed_area"`
}

// Pattern is one pre-authored arrangement of a product.
type Pattern struct {
	Name      string
	Product   string
	Class     Class
	Metadata  Metadata
	Polylines []cad.Polyline
}

// Shoulder returns the closed polyline outlining the installed footprint.
func (p Pattern) Shoulder() (cad.Polyline, error) {
	s, err := cad.Shoulder(p.Polylines)
	if err != nil {
		return cad.Polyline{}, eris.Wrapf(err, "catalog: pattern %s/%s/%s", p.Product, p.Class, p.Name)
	}
	return s, nil
}

// ShoulderPolygon returns the shoulder as a polygon.
func (p Pattern) ShoulderPolygon() (geometry.Polygon, error) {
	s, err := p.Shoulder()
	if err != nil {
		return geometry.Polygon{}, err
	}
	return s.Polygon()
}

// ProductSpec holds the physical constants of a product.
type ProductSpec struct {
	ID             string  `yaml:"id"`
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	CreditPerPiece float64 `yaml:"credit_per_piece"`
}

// DefaultProducts are the three supported products in priority order.
func DefaultProducts() []ProductSpec {
	return []ProductSpec{
		{ID: "mps9", Width: 2.0, Height: 10.0, CreditPerPiece: 30.0},
		{ID: "arc24", Width: 1.8333, Height: 5.0, CreditPerPiece: 15.0},
		{ID: "eq36lp", Width: 1.8333, Height: 4.0, CreditPerPiece: 11.32},
	}
}

type groupKey struct {
	product string
	class   Class
}

// Catalog is an immutable set of patterns.
type Catalog struct {
	products []ProductSpec
	groups   map[groupKey][]Pattern
}

// New builds a catalog. Patterns keep their relative order within each
// product and class. A repeated name within a group replaces the earlier
// entry's values but keeps its position.
func New(products []ProductSpec, patterns []Pattern) *Catalog {
	c := &Catalog{
		products: append([]ProductSpec(nil), products...),
		groups:   make(map[groupKey][]Pattern),
	}
	index := make(map[groupKey]map[string]int)
	for _, p := range patterns {
		k := groupKey{product: p.Product, class: p.Class}
		names, ok := index[k]
		if !ok {
			names = make(map[string]int)
			index[k] = names
		}
		if i, dup := names[p.Name]; dup {
			zap.L().Warn("catalog: duplicate pattern name, later entry replaces earlier",
				zap.String("product", p.Product),
				zap.String("class", string(p.Class)),
				zap.String("pattern", p.Name),
			)
			c.groups[k][i] = p
			continue
		}
		names[p.Name] = len(c.groups[k])
		c.groups[k] = append(c.groups[k], p)
	}
	return c
}

// Patterns returns the patterns for a product and class in catalog order, or
// nil when the group is unknown. The slice is a copy.
func (c *Catalog) Patterns(product string, class Class) []Pattern {
	if c == nil {
		return nil
	}
	src := c.groups[groupKey{product: product, class: class}]
	if len(src) == 0 {
		return nil
	}
	return append([]Pattern(nil), src...)
}

// Pattern looks up a single pattern by name.
func (c *Catalog) Pattern(product string, class Class, name string) (Pattern, bool) {
	for _, p := range c.Patterns(product, class) {
		if p.Name == name {
			return p, true
		}
	}
	return Pattern{}, false
}

// Products returns the product specs in priority order.
func (c *Catalog) Products() []ProductSpec {
	if c == nil {
		return nil
	}
	return append([]ProductSpec(nil), c.products...)
}

// Product returns the physical constants for id.
func (c *Catalog) Product(id string) (ProductSpec, bool) {
	for _, p := range c.Products() {
		if p.ID == id {
			return p, true
		}
	}
	return ProductSpec{}, false
}

// Len returns the total number of patterns.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	var n int
	for _, g := range c.groups {
		n += len(g)
	}
	return n
}
