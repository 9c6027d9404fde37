package risk

import "time"

// StopReason is the daily verdict on new entries.
type StopReason string

const (
	StopNone      StopReason = "NONE"
	StopLoss      StopReason = "STOP_LOSS"
	StopTarget    StopReason = "STOP_TARGET"
	StopMaxTrades StopReason = "MAX_TRADES"
)

// DailyState tracks the equity curve and trade count of one trading day.
type DailyState struct {
	StartEquity  float64
	PeakEquity   float64
	TroughEquity float64
	LastEquity   float64
	Trades       int
	HedgeUsed    bool

	// Day is the calendar day (midnight in its location) the state belongs to.
	Day time.Time
}

// Reset starts a new day at equity.
func (d *DailyState) Reset(day time.Time, equity float64) {
	*d = DailyState{
		StartEquity:  equity,
		PeakEquity:   equity,
		TroughEquity: equity,
		LastEquity:   equity,
		Day:          truncateDay(day),
	}
}

// UpdateEquity records the latest equity reading.
func (d *DailyState) UpdateEquity(equity float64) {
	if equity > d.PeakEquity {
		d.PeakEquity = equity
	}
	if equity < d.TroughEquity {
		d.TroughEquity = equity
	}
	d.LastEquity = equity
}

// Update resets the state when now falls on a different calendar day than
// the state's, then records equity. It reports whether a reset happened.
func (d *DailyState) Update(now time.Time, equity float64) bool {
	rolled := d.Day.IsZero() || !truncateDay(now).Equal(d.Day)
	if rolled {
		d.Reset(now, equity)
	}
	d.UpdateEquity(equity)
	return rolled
}

// ChangePct is the day's equity change in percent of start equity.
func (d *DailyState) ChangePct() float64 {
	if d.StartEquity <= 0 {
		return 0
	}
	last := d.LastEquity
	if last == 0 {
		last = d.StartEquity
	}
	return (last - d.StartEquity) / d.StartEquity * 100
}

// DDPct is the day's worst drawdown in percent of start equity (<= 0).
func (d *DailyState) DDPct() float64 {
	if d.StartEquity <= 0 {
		return 0
	}
	return (d.TroughEquity - d.StartEquity) / d.StartEquity * 100
}

// DailyStop returns STOP_LOSS when the drawdown reached maxDDPct, otherwise
// STOP_TARGET when the change reached targetPct, otherwise NONE.
func DailyStop(changePct, ddPct, targetPct, maxDDPct float64) StopReason {
	if ddPct <= -maxDDPct {
		return StopLoss
	}
	if changePct >= targetPct {
		return StopTarget
	}
	return StopNone
}

func MaxTradesReached(count, limit int) bool {
	return count >= limit
}

func truncateDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, t.Location())
}
