// Package indicators provides the technical indicators the regime classifier
// consumes: ATR, ADX, EMA and the Donchian channel.
//
// Batch functions take a bar (or close) window ordered oldest first and return
// ErrNotEnoughBars when the window is too short. Each batch function is backed
// by a streaming type so live and replayed calculations agree.
package indicators

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/execbot/market"
)

// ErrNotEnoughBars reports that an indicator is unavailable for the supplied
// window.
var ErrNotEnoughBars = errors.New("not enough bars")

// Indicator computes a single streaming value from bars.
// It is deterministic and safe to use in live and replayed runs.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar and updates internal state.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value, 0 until Ready().
	Value() float64
}

func notEnough(need, got int) error {
	return fmt.Errorf("%w: need %d, got %d", ErrNotEnoughBars, need, got)
}

func checkPeriod(period int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	return nil
}
