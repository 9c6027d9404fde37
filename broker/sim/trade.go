package sim

import (
	"time"

	"github.com/rustyeddy/execbot/market"
)

// ClosedTrade is a position the engine has closed, by request or by a
// stop/target trigger.
type ClosedTrade struct {
	Ticket     uint64
	Symbol     string
	Direction  market.Direction
	Volume     float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

func triggerStopLoss(p *market.Position, mark float64) bool {
	if p.StopLoss == 0 {
		return false
	}
	if p.Direction == market.Long {
		return mark <= p.StopLoss
	}
	return mark >= p.StopLoss
}

func triggerTakeProfit(p *market.Position, mark float64) bool {
	if p.TakeProfit == 0 {
		return false
	}
	if p.Direction == market.Long {
		return mark >= p.TakeProfit
	}
	return mark <= p.TakeProfit
}
