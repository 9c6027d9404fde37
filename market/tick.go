package market

import "time"

type Tick struct {
	Symbol string
	Time   time.Time
	Bid    float64
	Ask    float64
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

// SpreadPoints returns the spread expressed in instrument points.
// A zero point size yields 0.
func (t Tick) SpreadPoints(point float64) float64 {
	if point == 0 {
		return 0
	}
	return t.Spread() / point
}

// EntryPrice is the price a market order in dir fills at: ask for longs,
// bid for shorts.
func (t Tick) EntryPrice(dir Direction) float64 {
	if dir == Short {
		return t.Bid
	}
	return t.Ask
}

// ExitPrice is the price an open position in dir is marked and closed at:
// bid for longs, ask for shorts.
func (t Tick) ExitPrice(dir Direction) float64 {
	if dir == Short {
		return t.Ask
	}
	return t.Bid
}
