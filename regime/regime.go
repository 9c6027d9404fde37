// Package regime fuses volatility, trend strength and channel breakout into a
// directional signal with a size factor.
package regime

import (
	"github.com/rustyeddy/execbot/indicators"
	"github.com/rustyeddy/execbot/market"
)

type Regime string

const (
	TrendLong  Regime = "TREND_LONG"
	TrendShort Regime = "TREND_SHORT"
	Unsure     Regime = "UNSURE"
)

// Size factors a signal can carry.
const (
	FullSize = 1.0
	HalfSize = 0.5
)

// Params are the classifier thresholds and indicator periods.
type Params struct {
	ATRPeriod        int
	ATRMin           float64
	ADXTrendMin      float64
	ADXMicroMin      float64
	DonchianLookback int
	EMAFast          int
	EMASlow          int
}

// MarketState is derived fresh every cycle. The *OK flags report indicator
// availability; values are zero when unavailable.
type MarketState struct {
	Regime Regime

	ATR   float64
	ATROK bool
	ADX   float64
	ADXOK bool

	EMAFast float64
	EMASlow float64
	EMAOK   bool

	DonchianHigh float64
	DonchianLow  float64

	Signal     market.Direction
	SizeFactor float64
}

// HasSignal reports whether the state carries a tradable direction.
func (m MarketState) HasSignal() bool {
	return m.Signal != market.None && m.SizeFactor > 0
}

// Classify computes the indicators over bars and classifies them.
func Classify(bars []market.Bar, p Params) MarketState {
	var ms MarketState
	ms.Regime = Unsure

	if atr, err := indicators.ATR(bars, p.ATRPeriod); err == nil {
		ms.ATR, ms.ATROK = atr, true
	}
	if adx, err := indicators.ADX(bars, p.ATRPeriod); err == nil {
		ms.ADX, ms.ADXOK = adx, true
	}
	if !ms.ATROK || !ms.ADXOK || ms.ATR < p.ATRMin {
		return ms
	}

	fast, errFast := indicators.EMAWindow(bars, p.EMAFast)
	slow, errSlow := indicators.EMAWindow(bars, p.EMASlow)
	if errFast != nil || errSlow != nil {
		return ms
	}
	ms.EMAFast, ms.EMASlow, ms.EMAOK = fast, slow, true

	// The channel excludes the newest bar, otherwise its close could never
	// break above the high or below the low.
	last, _ := market.Last(bars)
	high, low, err := indicators.Donchian(bars[:len(bars)-1], p.DonchianLookback)
	if err != nil {
		return ms
	}
	ms.DonchianHigh, ms.DonchianLow = high, low

	return Decide(ms, last.Close, p)
}

// Decide applies the regime rules to already computed indicator values in ms
// and the current close. Only one branch fires; anything ambiguous is Unsure.
func Decide(ms MarketState, price float64, p Params) MarketState {
	ms.Regime = Unsure
	ms.Signal = market.None
	ms.SizeFactor = 0

	if !ms.ATROK || !ms.ADXOK || ms.ATR < p.ATRMin || !ms.EMAOK {
		return ms
	}

	switch {
	case ms.ADX >= p.ADXTrendMin:
		if ms.EMAFast > ms.EMASlow && price > ms.DonchianHigh {
			return ms.with(TrendLong, market.Long, FullSize)
		}
		if ms.EMAFast < ms.EMASlow && price < ms.DonchianLow {
			return ms.with(TrendShort, market.Short, FullSize)
		}

	case ms.ADX >= p.ADXMicroMin:
		halfATR := 0.5 * ms.ATR
		if ms.EMAFast > ms.EMASlow && within(ms.DonchianHigh-price, halfATR) {
			return ms.with(TrendLong, market.Long, HalfSize)
		}
		if ms.EMAFast < ms.EMASlow && within(price-ms.DonchianLow, halfATR) {
			return ms.with(TrendShort, market.Short, HalfSize)
		}
	}
	return ms
}

func (m MarketState) with(r Regime, dir market.Direction, size float64) MarketState {
	m.Regime = r
	m.Signal = dir
	m.SizeFactor = size
	return m
}

func within(gap, limit float64) bool {
	return gap >= 0 && gap <= limit
}
