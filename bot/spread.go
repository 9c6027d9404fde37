package bot

import (
	"math"
	"slices"

	"github.com/rustyeddy/execbot/config"
)

// SpreadTracker keeps a bounded history of spreads (in points) and derives
// the entry spread cap from it.
type SpreadTracker struct {
	cfg  config.SpreadConfig
	buf  []float64
	next int
	full bool
}

func NewSpreadTracker(cfg config.SpreadConfig) *SpreadTracker {
	if cfg.History < 1 {
		cfg.History = 1
	}
	return &SpreadTracker{
		cfg: cfg,
		buf: make([]float64, 0, cfg.History),
	}
}

// Add records a spread and returns the cap that applies to it.
func (t *SpreadTracker) Add(points float64) float64 {
	if len(t.buf) < t.cfg.History {
		t.buf = append(t.buf, points)
	} else {
		t.buf[t.next] = points
		t.next = (t.next + 1) % t.cfg.History
	}
	return t.Cap()
}

func (t *SpreadTracker) Len() int { return len(t.buf) }

// Cap is the base cap until MinSamples spreads are seen. After that it is
// the truncated median times Multiplier, clamped to [Floor, Ceiling], and
// never below the base cap.
func (t *SpreadTracker) Cap() float64 {
	base := t.cfg.BaseCap
	if len(t.buf) < t.cfg.MinSamples {
		return base
	}
	dynamic := math.Trunc(t.Median() * t.cfg.Multiplier)
	dynamic = math.Max(t.cfg.Floor, math.Min(t.cfg.Ceiling, dynamic))
	return math.Max(dynamic, base)
}

// Median of the recorded spreads; 0 when empty.
func (t *SpreadTracker) Median() float64 {
	n := len(t.buf)
	if n == 0 {
		return 0
	}
	s := slices.Sorted(slices.Values(t.buf))
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
