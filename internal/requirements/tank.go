package requirements

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/redbay-eng/drainfield-placer/internal/fetcher"
)

// Fallbacks when the flow is below every tabulated band.
const (
	defaultSepticTank      = 900
	defaultPumpResidential = 150
	defaultPumpCommercial  = 225

	gallonsPerHome = 75
)

// TankRange is one flow band of the tank sizing table.
type TankRange struct {
	MinFlowGPD      int
	MaxFlowGPD      int
	SepticTank      int
	PumpResidential int
	PumpCommercial  int
}

// TankTable sizes septic and pump tanks by flow.
type TankTable struct {
	ranges []TankRange
}

// NewTankTable builds the table from rows with columns min_flow_gpd,
// max_flow_gpd, septic_tank_min_capacity, pump_tank_min_residential and
// pump_tank_min_commercial. Row order is kept; the last row is the
// largest band.
func NewTankTable(t *fetcher.Table) (*TankTable, error) {
	cols := []string{"min_flow_gpd", "max_flow_gpd", "septic_tank_min_capacity", "pump_tank_min_residential", "pump_tank_min_commercial"}
	if err := t.Require(cols...); err != nil {
		return nil, eris.Wrap(err, "requirements: tank table")
	}
	tt := &TankTable{ranges: make([]TankRange, 0, len(t.Rows))}
	for _, row := range t.Rows {
		vals := make([]int, len(cols))
		for i, c := range cols {
			v, err := intCell(t, row, c)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		tt.ranges = append(tt.ranges, TankRange{
			MinFlowGPD:      vals[0],
			MaxFlowGPD:      vals[1],
			SepticTank:      vals[2],
			PumpResidential: vals[3],
			PumpCommercial:  vals[4],
		})
	}
	return tt, nil
}

// Len reports the number of bands.
func (tt *TankTable) Len() int { return len(tt.ranges) }

// band returns the band containing flow, or the last band when flow is
// above the table. ok is false when no band applies.
func (tt *TankTable) band(flowGPD float64) (TankRange, bool) {
	for _, r := range tt.ranges {
		if float64(r.MinFlowGPD) <= flowGPD && flowGPD <= float64(r.MaxFlowGPD) {
			return r, true
		}
	}
	if n := len(tt.ranges); n > 0 && flowGPD > float64(tt.ranges[n-1].MaxFlowGPD) {
		return tt.ranges[n-1], true
	}
	return TankRange{}, false
}

// SepticTank returns the minimum septic tank capacity in gallons. With more
// than one dwelling, 75 gallons per dwelling are added.
func (tt *TankTable) SepticTank(flowGPD float64, homes int) int {
	r, ok := tt.band(flowGPD)
	if !ok {
		return defaultSepticTank
	}
	if homes > 1 {
		return r.SepticTank + homes*gallonsPerHome
	}
	return r.SepticTank
}

// PumpTank returns the minimum pump tank capacity in gallons.
func (tt *TankTable) PumpTank(flowGPD float64, residential bool) int {
	r, ok := tt.band(flowGPD)
	switch {
	case !ok && residential:
		return defaultPumpResidential
	case !ok:
		return defaultPumpCommercial
	case residential:
		return r.PumpResidential
	default:
		return r.PumpCommercial
	}
}

var commercialATUBands = []struct {
	maxFlow  float64
	capacity int
}{
	{400, 400}, {500, 500}, {600, 600}, {700, 700}, {750, 750},
	{800, 800}, {1000, 1000}, {1200, 1200}, {1500, 1500},
}

// ATUSize returns the aerobic treatment unit capacity in gallons.
// Residential sizing follows bedrooms and building area; commercial sizing
// follows flow and reports false above 1500 GPD.
func ATUSize(bedrooms, sqft int, flowGPD float64, residential bool) (int, bool) {
	if !residential {
		if flowGPD < 0 {
			return 0, false
		}
		for _, b := range commercialATUBands {
			if flowGPD <= b.maxFlow {
				return b.capacity, true
			}
		}
		return 0, false
	}

	if (bedrooms <= 2 && sqft <= 1200) || (bedrooms == 3 && sqft <= 2250) {
		return 400, true
	}
	if bedrooms == 4 && sqft <= 3300 {
		return 500, true
	}
	byArea := 500
	if sqft > 3300 {
		byArea += int(math.Ceil(float64(sqft-3300)/overflowStepSqft)) * overflowStepGPD
	}
	byBedrooms := 500
	if bedrooms > 4 {
		byBedrooms += (bedrooms - 4) * overflowStepGPD
	}
	return max(byArea, byBedrooms), true
}
