package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func okGates() GateInputs {
	return GateInputs{
		ATR:          1.5,
		ATROK:        true,
		ATRMin:       0.8,
		ADXOK:        true,
		SpreadPoints: 80,
		SpreadCap:    120,
		Daily:        StopNone,
		Trades:       3,
		Limits:       Limits{MaxTradesPerDay: 30},
	}
}

func TestEvaluateGatesAllowed(t *testing.T) {
	t.Parallel()

	d := EvaluateGates(okGates())
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Violations)
}

func TestEvaluateGates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*GateInputs)
		code   string
		reason string
	}{
		{"atr unavailable", func(g *GateInputs) { g.ATROK = false }, CodeATRUnavailable, "ATR unavailable"},
		{"atr floor", func(g *GateInputs) { g.ATR = 0.5 }, CodeATRBelowMin, "ATR<min"},
		{"adx unavailable", func(g *GateInputs) { g.ADXOK = false }, CodeADXUnavailable, "ADX unavailable"},
		{"spread", func(g *GateInputs) { g.SpreadPoints = 121 }, CodeSpreadTooWide, "spread>cap (121.0>120)"},
		{"daily loss", func(g *GateInputs) { g.Daily = StopLoss }, CodeDailyStopLoss, "daily stop_loss"},
		{"daily target", func(g *GateInputs) { g.Daily = StopTarget }, CodeDailyTarget, "daily stop_target"},
		{"max trades", func(g *GateInputs) { g.Trades = 30 }, CodeMaxTrades, "daily max trades"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := okGates()
			tt.mutate(&in)

			d := EvaluateGates(in)
			assert.False(t, d.Allowed)
			assert.True(t, d.Has(tt.code))
			assert.Equal(t, []string{tt.reason}, d.Reasons())
		})
	}
}

func TestEvaluateGatesCollectsAll(t *testing.T) {
	t.Parallel()

	in := okGates()
	in.ADXOK = false
	in.Daily = StopLoss
	in.Trades = 40

	d := EvaluateGates(in)
	assert.Equal(t, []string{"ADX unavailable", "daily stop_loss", "daily max trades"}, d.Reasons())
}

func TestDailyLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StopMaxTrades, DailyLabel(StopNone, 30, 30))
	assert.Equal(t, StopLoss, DailyLabel(StopLoss, 30, 30))
	assert.Equal(t, StopNone, DailyLabel(StopNone, 2, 30))
}
