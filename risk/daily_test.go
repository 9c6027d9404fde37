package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDailyStop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		change float64
		dd     float64
		want   StopReason
	}{
		{"drawdown hit", -7, -7, StopLoss},
		{"target hit", 5, 0, StopTarget},
		{"neither", 1, -2, StopNone},
		{"drawdown precedes target", 5, -6, StopLoss},
		{"drawdown edge", 0, -6, StopLoss},
		{"target edge", 4, -1, StopTarget},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DailyStop(tt.change, tt.dd, 4, 6))
		})
	}
}

func TestMaxTradesReached(t *testing.T) {
	t.Parallel()

	assert.False(t, MaxTradesReached(29, 30))
	assert.True(t, MaxTradesReached(30, 30))
	assert.True(t, MaxTradesReached(0, 0))
}

func TestDailyStateEquityCurve(t *testing.T) {
	t.Parallel()

	var d DailyState
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	d.Reset(day, 10_000)

	d.UpdateEquity(10_200)
	d.UpdateEquity(9_500)
	d.UpdateEquity(9_800)

	assert.Equal(t, 10_200.0, d.PeakEquity)
	assert.Equal(t, 9_500.0, d.TroughEquity)
	assert.InDelta(t, -2.0, d.ChangePct(), 1e-9)
	assert.InDelta(t, -5.0, d.DDPct(), 1e-9)
	assert.LessOrEqual(t, d.DDPct(), 0.0)
}

func TestDailyStateZeroStart(t *testing.T) {
	t.Parallel()

	var d DailyState
	assert.Zero(t, d.ChangePct())
	assert.Zero(t, d.DDPct())
}

func TestDailyStateRollover(t *testing.T) {
	t.Parallel()

	var d DailyState
	first := time.Date(2026, 3, 2, 23, 50, 0, 0, time.UTC)

	assert.True(t, d.Update(first, 10_000), "first update initializes")
	d.Trades = 7
	d.HedgeUsed = true

	assert.False(t, d.Update(first.Add(5*time.Minute), 9_900))
	assert.Equal(t, 7, d.Trades)
	assert.Equal(t, 10_000.0, d.StartEquity)

	assert.True(t, d.Update(first.Add(15*time.Minute), 9_800))
	assert.Zero(t, d.Trades)
	assert.False(t, d.HedgeUsed)
	assert.Equal(t, 9_800.0, d.StartEquity)
	assert.Equal(t, 9_800.0, d.PeakEquity)
	assert.Equal(t, 9_800.0, d.TroughEquity)
	assert.Equal(t, 9_800.0, d.LastEquity)
}
