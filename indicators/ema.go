package indicators

import (
	"fmt"

	"github.com/rustyeddy/execbot/market"
)

// EMA calculates the Exponential Moving Average of values, seeded with the
// first value of the window. Callers pass the 2*period most recent closes so
// the average has time to converge.
func EMA(values []float64, period int) (float64, error) {
	if err := checkPeriod(period); err != nil {
		return 0, err
	}
	if len(values) < period {
		return 0, notEnough(period, len(values))
	}

	ema := NewEMA(period)
	for _, v := range values {
		ema.Add(v)
	}
	return ema.Value(), nil
}

// EMAWindow returns the EMA over the 2*period most recent closes of bars.
func EMAWindow(bars []market.Bar, period int) (float64, error) {
	closes := market.Closes(bars)
	if n := 2 * period; n > 0 && len(closes) > n {
		closes = closes[len(closes)-n:]
	}
	return EMA(closes, period)
}

// ExponentialMA is a streaming Exponential Moving Average. The first value
// seeds the average; Ready is true once period values have been seen.
type ExponentialMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
}

// NewEMA creates a new Exponential Moving Average indicator with the given period
func NewEMA(period int) *ExponentialMA {
	return &ExponentialMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int {
	return e.period
}

func (e *ExponentialMA) Reset() {
	e.ema = 0
	e.count = 0
}

func (e *ExponentialMA) Update(b market.Bar) {
	e.Add(b.Close)
}

// Add feeds a raw value.
func (e *ExponentialMA) Add(v float64) {
	if e.count == 0 {
		e.ema = v
	} else {
		e.ema = (v-e.ema)*e.multiplier + e.ema
	}
	e.count++
}

func (e *ExponentialMA) Ready() bool {
	return e.count >= e.period
}

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}
