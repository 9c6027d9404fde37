package regime

import (
	"testing"

	"github.com/rustyeddy/execbot/market"
	"github.com/stretchr/testify/assert"
)

func testParams() Params {
	return Params{
		ATRPeriod:        14,
		ATRMin:           0.8,
		ADXTrendMin:      25,
		ADXMicroMin:      14,
		DonchianLookback: 14,
		EMAFast:          13,
		EMASlow:          34,
	}
}

func trendingBars(n int, step float64) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		low := 2000 + step*float64(i)
		bars[i] = market.Bar{Open: low, High: low + 1, Low: low, Close: low + 0.5}
	}
	return bars
}

func flatBars(n int, price float64) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = market.Bar{Open: price, High: price, Low: price, Close: price}
	}
	return bars
}

func ready(adx, atr, fast, slow, hi, lo float64) MarketState {
	return MarketState{
		ATR: atr, ATROK: true,
		ADX: adx, ADXOK: true,
		EMAFast: fast, EMASlow: slow, EMAOK: true,
		DonchianHigh: hi, DonchianLow: lo,
	}
}

func TestClassifyBreakoutLong(t *testing.T) {
	t.Parallel()

	ms := Classify(trendingBars(120, 1), testParams())
	assert.Equal(t, TrendLong, ms.Regime)
	assert.Equal(t, market.Long, ms.Signal)
	assert.Equal(t, FullSize, ms.SizeFactor)
	assert.True(t, ms.HasSignal())
	assert.InDelta(t, 1.5, ms.ATR, 1e-9)
	assert.GreaterOrEqual(t, ms.ADX, 25.0)
	assert.Greater(t, ms.EMAFast, ms.EMASlow)
}

func TestClassifyBreakoutShort(t *testing.T) {
	t.Parallel()

	ms := Classify(trendingBars(120, -1), testParams())
	assert.Equal(t, TrendShort, ms.Regime)
	assert.Equal(t, market.Short, ms.Signal)
	assert.Equal(t, FullSize, ms.SizeFactor)
}

func TestClassifyGuards(t *testing.T) {
	t.Parallel()

	t.Run("flat market is below ATR floor", func(t *testing.T) {
		ms := Classify(flatBars(120, 2000), testParams())
		assert.Equal(t, Unsure, ms.Regime)
		assert.True(t, ms.ATROK)
		assert.True(t, ms.ADXOK)
		assert.Equal(t, market.None, ms.Signal)
		assert.Equal(t, 0.0, ms.SizeFactor)
	})

	t.Run("short history leaves indicators unavailable", func(t *testing.T) {
		ms := Classify(trendingBars(10, 1), testParams())
		assert.Equal(t, Unsure, ms.Regime)
		assert.False(t, ms.ATROK)
		assert.False(t, ms.ADXOK)
		assert.False(t, ms.HasSignal())
	})

	t.Run("slow EMA without enough closes", func(t *testing.T) {
		ms := Classify(trendingBars(20, 1), testParams())
		assert.Equal(t, Unsure, ms.Regime)
		assert.True(t, ms.ATROK)
		assert.False(t, ms.EMAOK)
	})
}

func TestDecide(t *testing.T) {
	t.Parallel()

	p := testParams()
	tests := []struct {
		name   string
		state  MarketState
		price  float64
		regime Regime
		signal market.Direction
		size   float64
	}{
		{"trend long breakout", ready(30, 2, 101, 100, 100, 90), 100.5, TrendLong, market.Long, 1.0},
		{"trend short breakdown", ready(30, 2, 99, 100, 110, 100), 99.5, TrendShort, market.Short, 1.0},
		{"trend without breakout stays unsure", ready(30, 2, 101, 100, 100, 90), 99.9, Unsure, market.None, 0},
		{"trend with EMAs against breakout", ready(30, 2, 99, 100, 100, 90), 100.5, Unsure, market.None, 0},
		{"micro long within half ATR", ready(20, 2, 101, 100, 100, 90), 99.5, TrendLong, market.Long, 0.5},
		{"micro long at channel high", ready(20, 2, 101, 100, 100, 90), 100, TrendLong, market.Long, 0.5},
		{"micro long too far below", ready(20, 2, 101, 100, 100, 90), 98.5, Unsure, market.None, 0},
		{"micro long above channel", ready(20, 2, 101, 100, 100, 90), 100.5, Unsure, market.None, 0},
		{"micro short within half ATR", ready(20, 2, 99, 100, 110, 100), 100.8, TrendShort, market.Short, 0.5},
		{"micro band lower edge", ready(14, 2, 101, 100, 100, 90), 99.5, TrendLong, market.Long, 0.5},
		{"below micro threshold", ready(13.9, 2, 101, 100, 100, 90), 100.5, Unsure, market.None, 0},
		{"equal EMAs never signal", ready(30, 2, 100, 100, 100, 90), 100.5, Unsure, market.None, 0},
		{"ATR below floor", ready(30, 0.5, 101, 100, 100, 90), 100.5, Unsure, market.None, 0},
		{"ADX unavailable", MarketState{ATR: 2, ATROK: true, EMAOK: true}, 100, Unsure, market.None, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Decide(tt.state, tt.price, p)
			assert.Equal(t, tt.regime, got.Regime)
			assert.Equal(t, tt.signal, got.Signal)
			assert.Equal(t, tt.size, got.SizeFactor)
			assert.Contains(t, []float64{0, HalfSize, FullSize}, got.SizeFactor)
		})
	}
}
