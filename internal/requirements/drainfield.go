package requirements

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/redbay-eng/drainfield-placer/internal/fetcher"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
)

var configNames = map[selection.ConfigType]string{
	selection.Trench:         "Trench",
	selection.Bed:            "Bed",
	selection.TrenchATU:      "Trench with ATU",
	selection.BedATU:         "Bed with ATU",
	selection.SplitTrench:    "Trench split in half",
	selection.SplitBed:       "Bed split in half",
	selection.SplitTrenchATU: "Trench split in half with ATU",
	selection.SplitBedATU:    "Bed split in half with ATU",
}

// ConfigName is the table's label for t, or "" when t is unknown.
func ConfigName(t selection.ConfigType) string { return configNames[t] }

// Requirement is one drainfield table entry.
type Requirement struct {
	DrainfieldSize   int `json:"drainfield_size"`
	UnobstructedArea int `json:"unobstructed_area"`
}

type dfKey struct {
	flow int
	name string
}

// DrainfieldTable holds tabulated drainfield sizes and satisfies
// selection.AreaSource.
type DrainfieldTable struct {
	entries map[dfKey]Requirement
	flows   []int
}

var _ selection.AreaSource = (*DrainfieldTable)(nil)

// NewDrainfieldTable builds the table from rows with columns flow_gpd,
// configuration_name, drainfield_size and unobstructed_area. Later rows
// replace earlier ones with the same flow and name.
func NewDrainfieldTable(t *fetcher.Table) (*DrainfieldTable, error) {
	if err := t.Require("flow_gpd", "configuration_name", "drainfield_size", "unobstructed_area"); err != nil {
		return nil, eris.Wrap(err, "requirements: drainfield table")
	}
	dt := &DrainfieldTable{entries: make(map[dfKey]Requirement)}
	for _, row := range t.Rows {
		flow, err := intCell(t, row, "flow_gpd")
		if err != nil {
			return nil, err
		}
		var req Requirement
		if req.DrainfieldSize, err = intCell(t, row, "drainfield_size"); err != nil {
			return nil, err
		}
		if req.UnobstructedArea, err = intCell(t, row, "unobstructed_area"); err != nil {
			return nil, err
		}
		name := strings.TrimSpace(t.Value(row, "configuration_name"))
		dt.entries[dfKey{flow, name}] = req
		if !slices.Contains(dt.flows, flow) {
			dt.flows = append(dt.flows, flow)
		}
	}
	slices.Sort(dt.flows)
	return dt, nil
}

// Len reports the number of distinct entries.
func (dt *DrainfieldTable) Len() int { return len(dt.entries) }

// Lookup finds the entry for flow and t: an exact flow match, else the
// lowest tabulated flow above it, else the highest tabulated flow.
func (dt *DrainfieldTable) Lookup(flowGPD float64, t selection.ConfigType) (Requirement, bool) {
	name, ok := configNames[t]
	if !ok || dt == nil {
		return Requirement{}, false
	}
	if flowGPD == float64(int(flowGPD)) {
		if req, ok := dt.entries[dfKey{int(flowGPD), name}]; ok {
			return req, true
		}
	}
	for _, f := range dt.flows {
		if float64(f) >= flowGPD {
			if req, ok := dt.entries[dfKey{f, name}]; ok {
				return req, true
			}
		}
	}
	if len(dt.flows) > 0 {
		req, ok := dt.entries[dfKey{dt.flows[len(dt.flows)-1], name}]
		return req, ok
	}
	return Requirement{}, false
}

// RequiredArea implements selection.AreaSource with the tabulated
// drainfield size.
func (dt *DrainfieldTable) RequiredArea(flowGPD float64, t selection.ConfigType) (float64, bool) {
	req, ok := dt.Lookup(flowGPD, t)
	if !ok {
		return 0, false
	}
	return float64(req.DrainfieldSize), true
}
