package selection

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
	"github.com/redbay-eng/drainfield-placer/internal/catalog"
	"github.com/redbay-eng/drainfield-placer/internal/fit"
	"github.com/redbay-eng/drainfield-placer/internal/geometry"
)

// ConfigType is a drainfield configuration.
type ConfigType string

// Configuration types.
const (
	Trench         ConfigType = "trench"
	Bed            ConfigType = "bed"
	TrenchATU      ConfigType = "trench_atu"
	BedATU         ConfigType = "bed_atu"
	SplitTrench    ConfigType = "split_trench"
	SplitBed       ConfigType = "split_bed"
	SplitTrenchATU ConfigType = "split_trench_atu"
	SplitBedATU    ConfigType = "split_bed_atu"
)

// Sequence is the order single-boundary configurations are tried in. The
// split pass tries the split variant of each in the same order.
var Sequence = []ConfigType{Trench, Bed, TrenchATU, BedATU}

const splitPrefix = "split_"

// ParseConfigType validates s.
func ParseConfigType(s string) (ConfigType, error) {
	t := ConfigType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", eris.Errorf("selection: unknown configuration type %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the eight configuration types.
func (t ConfigType) Valid() bool {
	switch t {
	case Trench, Bed, TrenchATU, BedATU, SplitTrench, SplitBed, SplitTrenchATU, SplitBedATU:
		return true
	}
	return false
}

// Class is the catalog class patterns are drawn from.
func (t ConfigType) Class() catalog.Class {
	if strings.Contains(string(t), "trench") {
		return catalog.Trench
	}
	return catalog.Bed
}

// IsATU reports whether an aerobic treatment unit reduces the area.
func (t ConfigType) IsATU() bool { return strings.HasSuffix(string(t), "_atu") }

// IsSplit reports whether the field is split across two boundaries.
func (t ConfigType) IsSplit() bool { return strings.HasPrefix(string(t), splitPrefix) }

// Split returns the split variant of t.
func (t ConfigType) Split() ConfigType {
	if t.IsSplit() {
		return t
	}
	return ConfigType(splitPrefix + string(t))
}

// Base strips the split prefix.
func (t ConfigType) Base() ConfigType {
	return ConfigType(strings.TrimPrefix(string(t), splitPrefix))
}

// Failure reasons.
const (
	ReasonNeedsSplit    = "needs_split"
	ReasonInvalidSplit  = "invalid_split"
	ReasonNeedsRedesign = "needs_redesign"
)

// NoFitReason is the reason reported when no pattern of t fits.
func NoFitReason(t ConfigType) string { return "no_fit_" + string(t) }

// Messages for hierarchy failures.
const (
	MsgNeedsSplit    = "No configuration fits in single boundary. Please create two boundaries for split system."
	MsgInvalidSplit  = "Split system requires exactly 2 boundaries."
	MsgNeedsRedesign = "No configuration fits even with split system. Architect intervention required."
)

// Placement is a pattern fitted into one boundary.
type Placement struct {
	Product  string           `json:"product"`
	Pattern  string           `json:"pattern"`
	Metadata catalog.Metadata `json:"metadata"`
	// Rotation is applied about Origin, the shoulder centroid in catalog
	// coordinates.
	Rotation float64        `json:"rotation"`
	Origin   geometry.Point `json:"origin"`
	// OffsetX and OffsetY move the catalog shoulder centroid onto the
	// boundary centroid.
	OffsetX float64          `json:"offset_x"`
	OffsetY float64          `json:"offset_y"`
	Tier    fit.Tier         `json:"tier"`
	Polygon geometry.Polygon `json:"footprint"`

	Polylines []cad.Polyline `json:"-"`
}

// CAD returns the placement in the form the CAD writer consumes.
func (p Placement) CAD() cad.Placement {
	return cad.Placement{
		Product: p.Product,
		Pattern: p.Pattern,
		Transform: cad.Transform{
			Rotation: p.Rotation,
			Origin:   p.Origin,
			DX:       p.OffsetX,
			DY:       p.OffsetY,
		},
		Polylines: p.Polylines,
	}
}

// Split holds one placement per split boundary.
type Split struct {
	First  Placement `json:"drainfield_1"`
	Second Placement `json:"drainfield_2"`
}

// Result is the outcome of a selection. On success exactly one of Placement
// and Split is set; on failure Reason and Message explain why.
type Result struct {
	Success          bool         `json:"success"`
	ConfigType       ConfigType   `json:"config_type,omitempty"`
	Placement        *Placement   `json:"placement,omitempty"`
	Split            *Split       `json:"split,omitempty"`
	FlowGPD          float64      `json:"flow_gpd,omitempty"`
	RequiredSqft     float64      `json:"required_sqft,omitempty"`
	RequiredSqftEach float64      `json:"required_sqft_each,omitempty"`
	Attempted        []ConfigType `json:"attempted"`
	Reason           string       `json:"reason,omitempty"`
	Message          string       `json:"message,omitempty"`
}

// IsSplit reports whether the result is a two-field success.
func (r Result) IsSplit() bool { return r.Split != nil }

// Placements returns every placement in the result, in field order.
func (r Result) Placements() []Placement {
	switch {
	case r.Split != nil:
		return []Placement{r.Split.First, r.Split.Second}
	case r.Placement != nil:
		return []Placement{*r.Placement}
	}
	return nil
}
