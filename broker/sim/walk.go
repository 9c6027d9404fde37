package sim

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rustyeddy/execbot/broker"
	"github.com/rustyeddy/execbot/market"
)

// Walk parameterizes the synthetic price series the engine generates for a
// symbol. Volatility and Drift are in price units per bar.
type Walk struct {
	Start        float64
	Volatility   float64
	Drift        float64
	SpreadPoints int
	Timeframe    market.Timeframe
	Seed         uint64
}

type walker struct {
	Walk
	rng  *rand.Rand
	step time.Duration
}

// Seed generates n bars of history for symbol ending at end and publishes a
// tick at the last close. The same Walk always produces the same series.
func (e *Engine) Seed(symbol string, n int, end time.Time, w Walk) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	spec, ok := e.specs[symbol]
	if !ok {
		return fmt.Errorf("seed %s: %w", symbol, broker.ErrUnavailable)
	}
	if n < 1 {
		return fmt.Errorf("seed %s: need at least one bar, got %d", symbol, n)
	}
	if w.Timeframe == "" {
		w.Timeframe = market.M5
	}
	secs, err := w.Timeframe.Seconds()
	if err != nil {
		return fmt.Errorf("seed %s: %w", symbol, err)
	}
	wk := &walker{
		Walk: w,
		rng:  rand.New(rand.NewPCG(w.Seed, w.Seed^0x9e3779b97f4a7c15)),
		step: time.Duration(secs) * time.Second,
	}
	e.walks[symbol] = wk

	step := wk.step
	bars := make([]market.Bar, 0, n)
	prev := w.Start
	at := end.Add(-time.Duration(n-1) * step)
	for i := 0; i < n; i++ {
		b := wk.next(spec, at, prev)
		bars = append(bars, b)
		prev = b.Close
		at = at.Add(step)
	}
	e.bars[symbol] = bars
	e.updatePriceLocked(wk.tick(spec, bars[len(bars)-1]))
	return nil
}

// Advance appends one bar to a seeded symbol and publishes a tick at its
// close, which may trigger stops and targets.
func (e *Engine) Advance(symbol string) (market.Bar, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	wk, ok := e.walks[symbol]
	if !ok {
		return market.Bar{}, fmt.Errorf("advance %s: not seeded: %w", symbol, broker.ErrUnavailable)
	}
	spec := e.specs[symbol]
	bars := e.bars[symbol]
	last := bars[len(bars)-1]

	b := wk.next(spec, last.Time.Add(wk.step), last.Close)
	e.bars[symbol] = append(bars, b)
	e.updatePriceLocked(wk.tick(spec, b))
	return b, nil
}

func (w *walker) next(spec market.SymbolSpec, at time.Time, open float64) market.Bar {
	closePx := open + w.Drift + w.rng.NormFloat64()*w.Volatility
	wick := func() float64 { return math.Abs(w.rng.NormFloat64()) * w.Volatility / 2 }

	return market.Bar{
		Time:  at,
		Open:  broker.NormalizePrice(open, spec.Digits),
		High:  broker.NormalizePrice(math.Max(open, closePx)+wick(), spec.Digits),
		Low:   broker.NormalizePrice(math.Min(open, closePx)-wick(), spec.Digits),
		Close: broker.NormalizePrice(closePx, spec.Digits),
	}
}

func (w *walker) tick(spec market.SymbolSpec, b market.Bar) market.Tick {
	return market.Tick{
		Symbol: spec.Name,
		Time:   b.Time,
		Bid:    b.Close,
		Ask:    broker.NormalizePrice(b.Close+float64(w.SpreadPoints)*spec.Point, spec.Digits),
	}
}
