package risk

// Action is the management decision for one open position.
type Action string

const (
	Hold       Action = "HOLD"
	Breakeven  Action = "BREAKEVEN_SL"
	Trail      Action = "TRAIL"
	CutOrHedge Action = "CUT_OR_HEDGE"
)

// cutR is the R-multiple at or below which a losing position is cut or hedged.
const cutR = -1.0

// ManageOpenTrade maps a position's R-multiple to an action. The first
// matching rule wins: trail, breakeven, cut-or-hedge, hold. A non-positive
// R value always holds.
func ManageOpenTrade(pnl, rValue, beTriggerR, trailAfterR float64) Action {
	if rValue <= 0 {
		return Hold
	}

	r := pnl / rValue
	switch {
	case r >= trailAfterR:
		return Trail
	case r >= beTriggerR:
		return Breakeven
	case r <= cutR:
		return CutOrHedge
	default:
		return Hold
	}
}
