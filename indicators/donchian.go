package indicators

import "github.com/rustyeddy/execbot/market"

// Donchian returns the highest high and lowest low of the most recent
// lookback bars. A short history or non-positive lookback shrinks the window
// to the bars available rather than failing; only an empty slice errors.
// To test a close against a prior channel, pass the bars before it: a
// window that includes the bar itself can never be closed above.
func Donchian(bars []market.Bar, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, notEnough(1, 0)
	}
	if lookback <= 0 || lookback > len(bars) {
		lookback = len(bars)
	}

	window := bars[len(bars)-lookback:]
	high, low = window[0].High, window[0].Low
	for _, b := range window[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}
