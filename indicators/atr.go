package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/execbot/market"
)

// ATR calculates the Average True Range for the given period and returns the
// final Wilder-smoothed value. It needs period+1 bars because the first true
// range uses the previous close.
func ATR(bars []market.Bar, period int) (float64, error) {
	if err := checkPeriod(period); err != nil {
		return 0, err
	}
	if len(bars) < period+1 {
		return 0, notEnough(period+1, len(bars))
	}

	atr := NewATR(period)
	for _, b := range bars {
		atr.Update(b)
	}
	return atr.Value(), nil
}

// AverageTrueRange is a streaming Average True Range indicator. The first
// period true ranges are averaged to seed it; later ones are Wilder-smoothed.
type AverageTrueRange struct {
	period      int
	atr         float64
	count       int
	warmupSum   float64
	prev        market.Bar
	hasPrevious bool
}

// NewATR creates a new Average True Range indicator with the given period
func NewATR(period int) *AverageTrueRange {
	return &AverageTrueRange{period: period}
}

func (a *AverageTrueRange) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *AverageTrueRange) Warmup() int {
	// Need period+1 bars because TR requires previous bar
	return a.period + 1
}

func (a *AverageTrueRange) Reset() {
	a.atr = 0
	a.count = 0
	a.warmupSum = 0
	a.hasPrevious = false
}

func (a *AverageTrueRange) Update(b market.Bar) {
	if !a.hasPrevious {
		a.prev = b
		a.hasPrevious = true
		return
	}

	tr := trueRange(b, a.prev)
	a.prev = b

	if a.count < a.period {
		a.warmupSum += tr
		a.count++
		if a.count == a.period {
			a.atr = a.warmupSum / float64(a.period)
		}
		return
	}

	a.atr = (a.atr*float64(a.period-1) + tr) / float64(a.period)
}

func (a *AverageTrueRange) Ready() bool {
	return a.count >= a.period
}

func (a *AverageTrueRange) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}

// trueRange calculates the True Range for a bar given the previous bar
func trueRange(current, previous market.Bar) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)

	return math.Max(highLow, math.Max(highClose, lowClose))
}
