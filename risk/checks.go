package risk

import "fmt"

// Violation codes reported by EvaluateGates.
const (
	CodeATRUnavailable = "ATR_UNAVAILABLE"
	CodeATRBelowMin    = "ATR_BELOW_MIN"
	CodeADXUnavailable = "ADX_UNAVAILABLE"
	CodeSpreadTooWide  = "SPREAD_TOO_WIDE"
	CodeDailyStopLoss  = "DAILY_STOP_LOSS"
	CodeDailyTarget    = "DAILY_STOP_TARGET"
	CodeMaxTrades      = "DAILY_MAX_TRADES"
)

type Violation struct {
	Code string
	Msg  string
}

// GateDecision collects every reason new entries are blocked this cycle.
type GateDecision struct {
	Allowed    bool
	Violations []Violation
}

func (d *GateDecision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reasons returns the violation messages in evaluation order.
func (d GateDecision) Reasons() []string {
	out := make([]string, len(d.Violations))
	for i, v := range d.Violations {
		out[i] = v.Msg
	}
	return out
}

// Has reports whether a violation with code was recorded.
func (d GateDecision) Has(code string) bool {
	for _, v := range d.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// EvaluateGates checks the entry gates. Gates never affect management of
// positions that are already open.
func EvaluateGates(in GateInputs) GateDecision {
	d := GateDecision{Allowed: true}

	switch {
	case !in.ATROK:
		d.add(CodeATRUnavailable, "ATR unavailable")
	case in.ATR < in.ATRMin:
		d.add(CodeATRBelowMin, "ATR<min")
	}
	if !in.ADXOK {
		d.add(CodeADXUnavailable, "ADX unavailable")
	}
	if in.SpreadPoints > in.SpreadCap {
		d.add(CodeSpreadTooWide, fmt.Sprintf("spread>cap (%.1f>%.0f)", in.SpreadPoints, in.SpreadCap))
	}
	switch in.Daily {
	case StopLoss:
		d.add(CodeDailyStopLoss, "daily stop_loss")
	case StopTarget:
		d.add(CodeDailyTarget, "daily stop_target")
	}
	if MaxTradesReached(in.Trades, in.Limits.MaxTradesPerDay) {
		d.add(CodeMaxTrades, "daily max trades")
	}
	return d
}

// DailyLabel is the verdict shown in logs: the equity verdict, or
// MAX_TRADES when only the trade cap is hit.
func DailyLabel(reason StopReason, trades, limit int) StopReason {
	if reason == StopNone && MaxTradesReached(trades, limit) {
		return StopMaxTrades
	}
	return reason
}
