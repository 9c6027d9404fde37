package market

import "time"

// Position is an open position as reported by the terminal. It is read by
// value every cycle and never cached.
type Position struct {
	Ticket     uint64
	Symbol     string
	Direction  Direction
	Volume     float64
	PriceOpen  float64
	StopLoss   float64 // 0 when no stop is set
	TakeProfit float64 // 0 when no target is set
	Profit     float64
	Comment    string
	OpenTime   time.Time
}

// StopDistance is the distance between entry and the stop on the losing side.
// It is zero or negative when no stop is set or the stop is already past entry.
func (p Position) StopDistance() float64 {
	if p.StopLoss == 0 {
		return 0
	}
	if p.Direction == Short {
		return p.StopLoss - p.PriceOpen
	}
	return p.PriceOpen - p.StopLoss
}
