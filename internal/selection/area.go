package selection

import (
	"math"

	"github.com/redbay-eng/drainfield-placer/internal/catalog"
)

// Loading rates in gallons per day per square foot.
const (
	trenchRate = 0.8
	bedRate    = 0.6
	atuFactor  = 0.75
)

// AreaSource supplies an authoritative required area for a flow and
// configuration type, overriding the loading-rate formula.
type AreaSource interface {
	RequiredArea(flowGPD float64, t ConfigType) (float64, bool)
}

// RequiredArea applies the loading-rate formula: flow over 0.8 for trenches
// or 0.6 for beds, times 0.75 with an ATU, rounded up. Split types return
// the full requirement; see SplitArea for the per-field share.
func RequiredArea(flowGPD float64, t ConfigType) float64 {
	rate := bedRate
	if t.Class() == catalog.Trench {
		rate = trenchRate
	}
	area := flowGPD / rate
	if t.IsATU() {
		area *= atuFactor
	}
	return math.Ceil(area)
}

// SplitArea is the per-field requirement when full is split in two.
func SplitArea(full float64) float64 {
	return math.Floor(full / 2)
}
