package catalog

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Manifest lists the products to load, in priority order, and the file that
// holds each of their classes.
type Manifest struct {
	Products []ManifestProduct `yaml:"products"`
}

// ManifestProduct is one product entry.
type ManifestProduct struct {
	ProductSpec `yaml:",inline"`
	Files       map[Class]string `yaml:"files"`
}

// File returns the file name for class, defaulting to "<id>_<class>.json".
func (p ManifestProduct) File(class Class) string {
	if f, ok := p.Files[class]; ok && f != "" {
		return f
	}
	return fmt.Sprintf("%s_%s.json", p.ID, class)
}

// DefaultManifest covers the built-in products with default file names.
func DefaultManifest() *Manifest {
	specs := DefaultProducts()
	m := &Manifest{Products: make([]ManifestProduct, 0, len(specs))}
	for _, s := range specs {
		m.Products = append(m.Products, ManifestProduct{ProductSpec: s})
	}
	return m
}

// Specs returns the product specs in manifest order.
func (m *Manifest) Specs() []ProductSpec {
	out := make([]ProductSpec, 0, len(m.Products))
	for _, p := range m.Products {
		out = append(out, p.ProductSpec)
	}
	return out
}

// LoadManifest reads a product manifest from a YAML file. Products missing
// physical constants inherit the built-in values for the same id.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read manifest %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "catalog: parse manifest")
	}
	if len(m.Products) == 0 {
		return nil, eris.Errorf("catalog: manifest %s lists no products", path)
	}

	defaults := make(map[string]ProductSpec)
	for _, s := range DefaultProducts() {
		defaults[s.ID] = s
	}
	for i, p := range m.Products {
		if p.ID == "" {
			return nil, eris.Errorf("catalog: manifest product %d has no id", i)
		}
		d, ok := defaults[p.ID]
		if !ok {
			continue
		}
		if p.Width == 0 {
			p.Width = d.Width
		}
		if p.Height == 0 {
			p.Height = d.Height
		}
		if p.CreditPerPiece == 0 {
			p.CreditPerPiece = d.CreditPerPiece
		}
		m.Products[i] = p
	}
	return &m, nil
}
