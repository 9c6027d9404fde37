package config

import (
	"github.com/rustyeddy/execbot/regime"
	"github.com/rustyeddy/execbot/risk"
)

func (c *Config) RegimeParams() regime.Params {
	r := c.Regime
	return regime.Params{
		ATRPeriod:        r.ATRPeriod,
		ATRMin:           r.ATRMin,
		ADXTrendMin:      r.ADXTrendMin,
		ADXMicroMin:      r.ADXMicroMin,
		DonchianLookback: r.DonchianLookback,
		EMAFast:          r.EMAFast,
		EMASlow:          r.EMASlow,
	}
}

func (c *Config) Limits() risk.Limits {
	r := c.Risk
	return risk.Limits{
		RiskPctPerTrade:  r.RiskPctPerTrade,
		DailyMaxDDPct:    r.DailyMaxDDPct,
		DailyTargetPct:   r.DailyTargetPct,
		MaxTradesPerDay:  r.MaxTradesPerDay,
		MaxConcurrentPos: r.MaxConcurrentPos,
		AllowSingleHedge: r.AllowSingleHedge,
	}
}
