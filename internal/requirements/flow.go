package requirements

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/redbay-eng/drainfield-placer/internal/fetcher"
)

// Gallons per day added for every started block of building area beyond
// the largest tabulated range.
const (
	overflowStepSqft = 750
	overflowStepGPD  = 60
)

// FlowRange is one building-size band for a bedroom count.
type FlowRange struct {
	SqftMin int `json:"sqft_min"`
	SqftMax int `json:"sqft_max"`
	FlowGPD int `json:"flow_gpd"`
}

// FlowEstimate is a computed flow with the band it came from.
type FlowEstimate struct {
	FlowRange
	Overflow bool `json:"is_overflow"`
}

// FlowTable maps bedrooms and building square footage to sewage flow.
type FlowTable struct {
	ranges map[int][]FlowRange
	rows   int
}

// NewFlowTable builds the table from rows with columns bedrooms,
// square_footage_min, square_footage_max and flow_gpd.
func NewFlowTable(t *fetcher.Table) (*FlowTable, error) {
	if err := t.Require("bedrooms", "square_footage_min", "square_footage_max", "flow_gpd"); err != nil {
		return nil, eris.Wrap(err, "requirements: flow table")
	}
	ft := &FlowTable{ranges: make(map[int][]FlowRange)}
	for _, row := range t.Rows {
		beds, err := intCell(t, row, "bedrooms")
		if err != nil {
			return nil, err
		}
		var r FlowRange
		if r.SqftMin, err = intCell(t, row, "square_footage_min"); err != nil {
			return nil, err
		}
		if r.SqftMax, err = intCell(t, row, "square_footage_max"); err != nil {
			return nil, err
		}
		if r.FlowGPD, err = intCell(t, row, "flow_gpd"); err != nil {
			return nil, err
		}
		ft.ranges[beds] = append(ft.ranges[beds], r)
		ft.rows++
	}
	return ft, nil
}

// Len reports the number of table rows.
func (ft *FlowTable) Len() int { return ft.rows }

// Estimate returns the flow for a dwelling. Buildings larger than the
// biggest band add 60 GPD per started 750 sq ft beyond it.
func (ft *FlowTable) Estimate(bedrooms, sqft int) (FlowEstimate, error) {
	ranges, ok := ft.ranges[bedrooms]
	if !ok || len(ranges) == 0 {
		return FlowEstimate{}, eris.Errorf("requirements: no flow data for %d bedrooms", bedrooms)
	}
	for _, r := range ranges {
		if r.SqftMin <= sqft && sqft <= r.SqftMax {
			return FlowEstimate{FlowRange: r}, nil
		}
	}

	last := ranges[0]
	for _, r := range ranges[1:] {
		if r.SqftMax > last.SqftMax {
			last = r
		}
	}
	if sqft <= last.SqftMax {
		// Gap in the table or below the first band.
		return FlowEstimate{FlowRange: last}, nil
	}
	extra := int(math.Ceil(float64(sqft-last.SqftMax) / overflowStepSqft))
	return FlowEstimate{
		FlowRange: FlowRange{
			SqftMin: last.SqftMax + 1,
			SqftMax: sqft,
			FlowGPD: last.FlowGPD + extra*overflowStepGPD,
		},
		Overflow: true,
	}, nil
}

// Flow is Estimate without the band.
func (ft *FlowTable) Flow(bedrooms, sqft int) (int, error) {
	est, err := ft.Estimate(bedrooms, sqft)
	if err != nil {
		return 0, err
	}
	return est.FlowGPD, nil
}
