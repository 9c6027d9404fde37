package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "XAUUSD", cfg.Symbol)
	assert.Equal(t, "M5", cfg.Timeframe)
	assert.Equal(t, 0.0075, cfg.Risk.RiskPctPerTrade)
	assert.Equal(t, 30, cfg.Risk.MaxTradesPerDay)
	assert.Equal(t, 190.0, cfg.Spread.BaseCap)
	assert.Equal(t, 10*time.Second, cfg.Runtime.Cooldown())
	assert.Equal(t, 5*time.Second, cfg.Runtime.Timeout())
	assert.Equal(t, time.UTC, cfg.Runtime.Location())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:   "missing symbol",
			mutate: func(c *Config) { c.Symbol = "" },
			errMsg: "symbol is required",
		},
		{
			name:   "unknown timeframe",
			mutate: func(c *Config) { c.Timeframe = "M7" },
			errMsg: "timeframe must be a timeframe like M5",
		},
		{
			name:   "zero risk per trade",
			mutate: func(c *Config) { c.Risk.RiskPctPerTrade = 0 },
			errMsg: "risk.risk_pct_per_trade must be gt 0",
		},
		{
			name:   "micro adx above trend adx",
			mutate: func(c *Config) { c.Regime.ADXMicroMin = 30 },
			errMsg: "regime.adx_micro_min must be lt regime.adx_trend_min",
		},
		{
			name:   "fast ema not faster",
			mutate: func(c *Config) { c.Regime.EMAFast = 34 },
			errMsg: "regime.ema_fast must be lt regime.ema_slow",
		},
		{
			name:   "trail before breakeven",
			mutate: func(c *Config) { c.Management.TrailAfterR = 0.25 },
			errMsg: "management.trail_after_r must be gte management.be_trigger_r",
		},
		{
			name:   "bad cooldown",
			mutate: func(c *Config) { c.Runtime.EntryCooldown = "soon" },
			errMsg: "runtime.entry_cooldown must be a positive duration",
		},
		{
			name:   "unknown journal",
			mutate: func(c *Config) { c.Journal.Type = "postgres" },
			errMsg: "journal.type must be one of [none csv sqlite]",
		},
		{
			name:   "sqlite without path",
			mutate: func(c *Config) { c.Journal.DBPath = "" },
			errMsg: "journal.db_path is required",
		},
		{
			name: "csv without dir",
			mutate: func(c *Config) {
				c.Journal.Type = "csv"
				c.Journal.DBPath = ""
			},
			errMsg: "journal.dir is required",
		},
		{
			name:   "no journal needs nothing",
			mutate: func(c *Config) { c.Journal = JournalConfig{Type: "none"} },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Symbol = ""
	cfg.Spread.Multiplier = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol is required")
	assert.Contains(t, err.Error(), "spread.multiplier must be gt 0")
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Symbol = "XAUUSDm"
	cfg.Risk.AllowSingleHedge = true

	for _, name := range []string{"config.yaml", "config.json"} {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, cfg.SaveToFile(path))

		loaded, err := LoadFromFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, cfg, loaded, name)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbol: XAUUSDm\nrisk:\n  max_trades_per_day: 12\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "XAUUSDm", cfg.Symbol)
	assert.Equal(t, 12, cfg.Risk.MaxTradesPerDay)
	assert.Equal(t, 6.0, cfg.Risk.DailyMaxDDPct)
	assert.Equal(t, 34, cfg.Regime.EMASlow)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("risk:\n  daily_max_dd_pct: -1\n"), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk.daily_max_dd_pct must be gt 0")

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EXECBOT_SYMBOL", "XAUUSDm")
	t.Setenv("EXECBOT_RISK_DAILY_MAX_DD_PCT", "3.5")
	t.Setenv("EXECBOT_REGIME_ATR_MIN", "1.25")
	t.Setenv("EXECBOT_BRIDGE_TOKEN", "secret")
	t.Setenv("EXECBOT_RUNTIME_ENTRY_COOLDOWN", "30s")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Default().SaveToFile(path))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "XAUUSDm", cfg.Symbol)
	assert.Equal(t, 3.5, cfg.Risk.DailyMaxDDPct)
	assert.Equal(t, 1.25, cfg.Regime.ATRMin)
	assert.Equal(t, "secret", cfg.Bridge.Token)
	assert.Equal(t, 30*time.Second, cfg.Runtime.Cooldown())
}

func TestConversions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	p := cfg.RegimeParams()
	assert.Equal(t, 14, p.ATRPeriod)
	assert.Equal(t, 25.0, p.ADXTrendMin)
	assert.Equal(t, 13, p.EMAFast)

	l := cfg.Limits()
	assert.Equal(t, 0.0075, l.RiskPctPerTrade)
	assert.Equal(t, 1, l.MaxConcurrentPos)
	assert.False(t, l.AllowSingleHedge)
}
