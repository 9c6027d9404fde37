package market

import "time"

// Bar is a closed OHLC candle. Bar slices are ordered oldest first.
type Bar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Closes returns the close prices of bars in order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Last returns the newest bar. ok is false for an empty slice.
func Last(bars []Bar) (Bar, bool) {
	if len(bars) == 0 {
		return Bar{}, false
	}
	return bars[len(bars)-1], true
}
