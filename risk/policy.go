package risk

// Limits are the daily and per-trade risk limits.
type Limits struct {
	RiskPctPerTrade  float64 // 0.0075
	DailyMaxDDPct    float64 // 6
	DailyTargetPct   float64 // 4
	MaxTradesPerDay  int     // 30
	MaxConcurrentPos int     // 1
	AllowSingleHedge bool
}

// GateInputs is everything the entry gates look at in one cycle.
type GateInputs struct {
	ATR    float64
	ATROK  bool
	ATRMin float64
	ADXOK  bool

	SpreadPoints float64
	SpreadCap    float64

	Daily  StopReason
	Trades int
	Limits Limits
}
