// Package config holds the bot's typed configuration: YAML or JSON on disk,
// optionally overridden by EXECBOT_* environment variables, validated before
// use.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rustyeddy/execbot/market"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. EXECBOT_RISK_DAILY_MAX_DD_PCT.
const EnvPrefix = "EXECBOT"

type Config struct {
	Symbol    string `json:"symbol" yaml:"symbol" validate:"required"`
	Timeframe string `json:"timeframe" yaml:"timeframe" validate:"timeframe"`
	Bars      int    `json:"bars" yaml:"bars" validate:"gte=50"`

	Risk       RiskConfig       `json:"risk" yaml:"risk" envconfig:"RISK"`
	Regime     RegimeConfig     `json:"regime" yaml:"regime" envconfig:"REGIME"`
	Management ManagementConfig `json:"management" yaml:"management" envconfig:"MANAGEMENT"`
	Spread     SpreadConfig     `json:"spread" yaml:"spread" envconfig:"SPREAD"`
	Runtime    RuntimeConfig    `json:"runtime" yaml:"runtime" envconfig:"RUNTIME"`
	Journal    JournalConfig    `json:"journal" yaml:"journal" envconfig:"JOURNAL"`
	Bridge     BridgeConfig     `json:"bridge" yaml:"bridge" envconfig:"BRIDGE"`
	Sim        SimConfig        `json:"sim" yaml:"sim" envconfig:"SIM"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics" envconfig:"METRICS"`
	Log        LogConfig        `json:"log" yaml:"log" envconfig:"LOG"`
}

// RiskConfig are the per-trade and daily limits.
type RiskConfig struct {
	RiskPctPerTrade  float64 `json:"risk_pct_per_trade" yaml:"risk_pct_per_trade" split_words:"true" validate:"gt=0,lte=0.05"`
	DailyMaxDDPct    float64 `json:"daily_max_dd_pct" yaml:"daily_max_dd_pct" split_words:"true" validate:"gt=0,lte=100"`
	DailyTargetPct   float64 `json:"daily_target_pct" yaml:"daily_target_pct" split_words:"true" validate:"gt=0"`
	MaxTradesPerDay  int     `json:"max_trades_per_day" yaml:"max_trades_per_day" split_words:"true" validate:"gte=0"`
	MaxConcurrentPos int     `json:"max_concurrent_pos" yaml:"max_concurrent_pos" split_words:"true" validate:"gte=0"`
	AllowSingleHedge bool    `json:"allow_single_hedge" yaml:"allow_single_hedge" split_words:"true"`
}

// RegimeConfig are the classifier's indicator periods and thresholds.
type RegimeConfig struct {
	ATRPeriod        int     `json:"atr_period" yaml:"atr_period" envconfig:"ATR_PERIOD" validate:"gte=1"`
	ATRMin           float64 `json:"atr_min" yaml:"atr_min" envconfig:"ATR_MIN" validate:"gte=0"`
	ADXTrendMin      float64 `json:"adx_trend_min" yaml:"adx_trend_min" envconfig:"ADX_TREND_MIN" validate:"gt=0,lte=100"`
	ADXMicroMin      float64 `json:"adx_micro_min" yaml:"adx_micro_min" envconfig:"ADX_MICRO_MIN" validate:"gte=0,ltfield=ADXTrendMin"`
	DonchianLookback int     `json:"donchian_lookback" yaml:"donchian_lookback" envconfig:"DONCHIAN_LOOKBACK" validate:"gte=1"`
	EMAFast          int     `json:"ema_fast" yaml:"ema_fast" envconfig:"EMA_FAST" validate:"gte=1,ltfield=EMASlow"`
	EMASlow          int     `json:"ema_slow" yaml:"ema_slow" envconfig:"EMA_SLOW" validate:"gte=2"`
}

// ManagementConfig drives stop placement and open-trade management.
type ManagementConfig struct {
	SLATRMult    float64 `json:"sl_atr_mult" yaml:"sl_atr_mult" envconfig:"SL_ATR_MULT" validate:"gt=0"`
	TPRMult      float64 `json:"tp_r_mult" yaml:"tp_r_mult" envconfig:"TP_R_MULT" validate:"gt=0"`
	BETriggerR   float64 `json:"be_trigger_r" yaml:"be_trigger_r" envconfig:"BE_TRIGGER_R" validate:"gt=0"`
	TrailAfterR  float64 `json:"trail_after_r" yaml:"trail_after_r" envconfig:"TRAIL_AFTER_R" validate:"gtefield=BETriggerR"`
	TrailATRMult float64 `json:"trail_atr_mult" yaml:"trail_atr_mult" envconfig:"TRAIL_ATR_MULT" validate:"gt=0"`
}

// SpreadConfig sets the spread gate. With at least MinSamples recent
// spreads the cap is max(BaseCap, clamp(median*Multiplier, Floor, Ceiling)).
type SpreadConfig struct {
	BaseCap    float64 `json:"base_cap_points" yaml:"base_cap_points" split_words:"true" validate:"gt=0"`
	History    int     `json:"history" yaml:"history" validate:"gte=1"`
	MinSamples int     `json:"min_samples" yaml:"min_samples" split_words:"true" validate:"gte=1,ltefield=History"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier" validate:"gt=0"`
	Floor      float64 `json:"floor_points" yaml:"floor_points" split_words:"true" validate:"gte=0"`
	Ceiling    float64 `json:"ceiling_points" yaml:"ceiling_points" split_words:"true" validate:"gtefield=Floor"`
}

// RuntimeConfig is the loop cadence and clock. Durations are Go duration
// strings.
type RuntimeConfig struct {
	EntryCooldown  string `json:"entry_cooldown" yaml:"entry_cooldown" split_words:"true" validate:"duration"`
	GatewayTimeout string `json:"gateway_timeout" yaml:"gateway_timeout" split_words:"true" validate:"duration"`
	TimeZone       string `json:"time_zone" yaml:"time_zone" split_words:"true" validate:"timezone"`
}

func (r RuntimeConfig) Cooldown() time.Duration {
	d, _ := time.ParseDuration(r.EntryCooldown)
	return d
}

func (r RuntimeConfig) Timeout() time.Duration {
	d, _ := time.ParseDuration(r.GatewayTimeout)
	return d
}

// Location is the time zone used for daily rollover.
func (r RuntimeConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// JournalConfig selects where decisions are journaled.
type JournalConfig struct {
	Type   string `json:"type" yaml:"type" validate:"oneof=none csv sqlite"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty" split_words:"true" validate:"required_if=Type sqlite"`
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty" validate:"required_if=Type csv"`
}

// BridgeConfig reaches a live terminal through its REST bridge.
type BridgeConfig struct {
	URL       string  `json:"url" yaml:"url" validate:"omitempty,url"`
	StreamURL string  `json:"stream_url,omitempty" yaml:"stream_url,omitempty" split_words:"true" validate:"omitempty,url"`
	Token     string  `json:"-" yaml:"-"`
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" split_words:"true" validate:"gte=0"`
	Burst     int     `json:"burst" yaml:"burst" validate:"gte=0"`
	Timeout   string  `json:"timeout" yaml:"timeout" validate:"duration"`
	StaleTick string  `json:"stale_tick" yaml:"stale_tick" split_words:"true" validate:"duration"`
}

// SimConfig seeds the in-memory terminal used with --sim.
type SimConfig struct {
	Balance      float64 `json:"balance" yaml:"balance" validate:"gt=0"`
	Start        float64 `json:"start_price" yaml:"start_price" split_words:"true" validate:"gt=0"`
	Volatility   float64 `json:"volatility" yaml:"volatility" validate:"gte=0"`
	Drift        float64 `json:"drift" yaml:"drift"`
	SpreadPoints int     `json:"spread_points" yaml:"spread_points" split_words:"true" validate:"gte=0"`
	Seed         uint64  `json:"seed" yaml:"seed"`
}

type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" validate:"omitempty,hostname_port"`
}

type LogConfig struct {
	Level       string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `json:"development" yaml:"development"`
}

// Default returns the stock configuration for XAUUSD on M5.
func Default() *Config {
	return &Config{
		Symbol:    "XAUUSD",
		Timeframe: string(market.M5),
		Bars:      200,
		Risk: RiskConfig{
			RiskPctPerTrade:  0.0075,
			DailyMaxDDPct:    6,
			DailyTargetPct:   4,
			MaxTradesPerDay:  30,
			MaxConcurrentPos: 1,
			AllowSingleHedge: false,
		},
		Regime: RegimeConfig{
			ATRPeriod:        14,
			ATRMin:           0.8,
			ADXTrendMin:      25,
			ADXMicroMin:      14,
			DonchianLookback: 14,
			EMAFast:          13,
			EMASlow:          34,
		},
		Management: ManagementConfig{
			SLATRMult:    1.1,
			TPRMult:      1.6,
			BETriggerR:   0.5,
			TrailAfterR:  1.0,
			TrailATRMult: 0.8,
		},
		Spread: SpreadConfig{
			BaseCap:    190,
			History:    120,
			MinSamples: 5,
			Multiplier: 2.2,
			Floor:      120,
			Ceiling:    240,
		},
		Runtime: RuntimeConfig{
			EntryCooldown:  "10s",
			GatewayTimeout: "5s",
			TimeZone:       "UTC",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./execbot.db",
		},
		Bridge: BridgeConfig{
			URL:       "http://127.0.0.1:8228",
			RateLimit: 20,
			Burst:     5,
			Timeout:   "10s",
			StaleTick: "2s",
		},
		Sim: SimConfig{
			Balance:      10_000,
			Start:        2000,
			Volatility:   1.2,
			SpreadPoints: 250,
			Seed:         1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile reads a YAML (or JSON) config on top of Default, applies
// environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jerr))
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv loads .env from the working directory when present and then
// overrides fields from EXECBOT_* variables. Unset variables leave fields
// untouched.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	return nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	_ = v.RegisterValidation("timeframe", func(fl validator.FieldLevel) bool {
		_, err := market.Timeframe(fl.Field().String()).Seconds()
		return err == nil
	})
	return v
}

// Validate checks every field; the error lists each violation by its YAML
// path, e.g. "risk.daily_max_dd_pct must be gt 0".
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	// Drop the root type name from the namespace.
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}

	switch fe.Tag() {
	case "required", "required_if":
		return path + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", path, fe.Param())
	case "duration":
		return path + " must be a positive duration"
	case "timeframe":
		return path + " must be a timeframe like M5"
	case "ltfield", "ltefield", "gtefield":
		return fmt.Sprintf("%s must be %s %s", path, fe.Tag()[:len(fe.Tag())-len("field")], fieldName(fe))
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s must be %s %s", path, fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s must be a valid %s", path, fe.Tag())
	}
}

// fieldName maps a cross-field param (Go field name) to its sibling's YAML path.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.LastIndex(ns, "."); i >= 0 {
		ns = ns[:i]
	}
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	} else {
		ns = ""
	}
	name := yamlName(fe.Param())
	if ns == "" {
		return name
	}
	return ns + "." + name
}

func yamlName(goField string) string {
	for _, t := range []reflect.Type{
		reflect.TypeOf(RegimeConfig{}),
		reflect.TypeOf(ManagementConfig{}),
		reflect.TypeOf(SpreadConfig{}),
	} {
		if f, ok := t.FieldByName(goField); ok {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			return name
		}
	}
	return goField
}
