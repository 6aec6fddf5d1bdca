package requirements

import "github.com/rotisserie/eris"

// SizingInput describes a dwelling or establishment to size.
type SizingInput struct {
	Bedrooms     int
	BuildingSqft int
	Homes        int
	Commercial   bool
}

// Sizing is the full set of sizing results for one property.
type Sizing struct {
	Flow       FlowEstimate `json:"flow"`
	SepticTank int          `json:"septic_tank_gallons"`
	PumpTank   int          `json:"pump_tank_gallons"`
	ATU        int          `json:"atu_gallons,omitempty"`
	HasATU     bool         `json:"has_atu"`
}

// Size computes flow, tank and ATU sizes from the loaded tables.
func (t *Tables) Size(in SizingInput) (Sizing, error) {
	if t == nil || t.Flow == nil || t.Tank == nil {
		return Sizing{}, eris.New("requirements: tables not loaded")
	}
	est, err := t.Flow.Estimate(in.Bedrooms, in.BuildingSqft)
	if err != nil {
		return Sizing{}, err
	}
	flow := float64(est.FlowGPD)
	homes := max(in.Homes, 1)
	s := Sizing{
		Flow:       est,
		SepticTank: t.Tank.SepticTank(flow, homes),
		PumpTank:   t.Tank.PumpTank(flow, !in.Commercial),
	}
	s.ATU, s.HasATU = ATUSize(in.Bedrooms, in.BuildingSqft, flow, !in.Commercial)
	return s, nil
}
