package risk

import (
	"errors"
	"math"

	"github.com/rustyeddy/execbot/market"
	"github.com/shopspring/decimal"
)

// ErrNonPositiveStop is returned when sizing is asked for without a stop.
var ErrNonPositiveStop = errors.New("stop distance must be positive for sizing")

// minStep guards the step snap against a zero or missing volume step.
const minStep = 1e-8

// LotsForRisk converts equity * riskPct of dollar risk at the given stop
// distance (price units) into a broker-legal lot size.
//
// The raw size is clamped to [VolumeMin, VolumeMax], snapped to the nearest
// VolumeStep multiple (half to even), rounded to VolumePrecision decimals and
// clamped again.
func LotsForRisk(spec market.SymbolSpec, equity, riskPct, stopDistance float64) (float64, error) {
	stopDistance = math.Abs(stopDistance)
	if stopDistance <= 0 {
		return 0, ErrNonPositiveStop
	}

	dollarsPerLotAtStop := stopDistance * spec.DollarsPerPriceUnit()
	acctRisk := equity * riskPct
	rawLots := acctRisk / math.Max(1e-9, dollarsPerLotAtStop)

	return NormalizeVolume(spec, rawLots), nil
}

// NormalizeVolume clamps, snaps and rounds v to a volume the terminal accepts.
func NormalizeVolume(spec market.SymbolSpec, v float64) float64 {
	v = clamp(v, spec.VolumeMin, spec.VolumeMax)
	v = SnapToStep(v, spec.VolumeStep)
	rounded, _ := decimal.NewFromFloat(v).Round(int32(spec.VolumePrecision)).Float64()
	return clamp(rounded, spec.VolumeMin, spec.VolumeMax)
}

// SnapToStep rounds v to the nearest multiple of step, ties to even.
func SnapToStep(v, step float64) float64 {
	step = math.Max(step, minStep)
	return math.Max(0, math.RoundToEven(v/step)*step)
}

// TradeRiskDollars is the dollar value of one R: what volume lots lose if
// price travels stopDistance.
func TradeRiskDollars(spec market.SymbolSpec, volume, stopDistance float64) float64 {
	return math.Abs(stopDistance) * spec.DollarsPerPriceUnit() * volume
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
