package risk

import "math"

// RR is the planned reward to risk ratio of an entry.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RMultiple is P&L expressed in units of R. A non-positive R yields 0.
func RMultiple(pnl, rValue float64) float64 {
	if rValue <= 0 {
		return 0
	}
	return pnl / rValue
}

// RiskPct is the fraction of equity a dollar risk represents.
func RiskPct(riskDollars, equity float64) float64 {
	if equity <= 0 {
		return math.Inf(1)
	}
	return riskDollars / equity
}
