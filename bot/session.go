// Package bot runs the decision cycle: read the terminal, classify the
// regime, apply the daily and spread gates, then either manage the open
// positions or size and place a new entry.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/execbot/broker"
	"github.com/rustyeddy/execbot/config"
	"github.com/rustyeddy/execbot/journal"
	"github.com/rustyeddy/execbot/market"
	"github.com/rustyeddy/execbot/metrics"
	"github.com/rustyeddy/execbot/regime"
	"github.com/rustyeddy/execbot/risk"
	"go.uber.org/zap"
)

// Session owns all state that survives between cycles. It is not safe for
// concurrent use; cycles run one at a time.
type Session struct {
	symbol   string
	tf       market.Timeframe
	bars     int
	params   regime.Params
	limits   risk.Limits
	mgmt     config.ManagementConfig
	cooldown time.Duration
	loc      *time.Location

	gw      broker.Gateway
	term    broker.Terminal
	log     *zap.Logger
	journal journal.Journal
	metrics *metrics.Metrics
	clock   Clock
	dryRun  bool
	before  func(context.Context) error

	daily   risk.DailyState
	spreads *SpreadTracker
}

type Option func(*Session)

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

func WithJournal(j journal.Journal) Option {
	return func(s *Session) { s.journal = j }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithDryRun makes the session decide and account as usual but never send
// orders or modifications to the terminal.
func WithDryRun(dryRun bool) Option {
	return func(s *Session) { s.dryRun = dryRun }
}

// WithBeforeStep runs fn at the start of every cycle; the simulator uses it
// to advance its market.
func WithBeforeStep(fn func(context.Context) error) Option {
	return func(s *Session) { s.before = fn }
}

// NewSession builds a session trading cfg.Symbol through gw. If gw is also a
// broker.Terminal, Initialize connects it.
func NewSession(cfg *config.Config, gw broker.Gateway, opts ...Option) *Session {
	s := &Session{
		symbol:   cfg.Symbol,
		tf:       market.Timeframe(cfg.Timeframe),
		bars:     cfg.Bars,
		params:   cfg.RegimeParams(),
		limits:   cfg.Limits(),
		mgmt:     cfg.Management,
		cooldown: cfg.Runtime.Cooldown(),
		loc:      cfg.Runtime.Location(),
		gw:       withTimeout(gw, cfg.Runtime.Timeout()),
		log:      zap.NewNop(),
		journal:  journal.Discard{},
		clock:    SystemClock,
		spreads:  NewSpreadTracker(cfg.Spread),
	}
	if t, ok := gw.(broker.Terminal); ok {
		s.term = t
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Daily returns a copy of the current daily risk state.
func (s *Session) Daily() risk.DailyState {
	return s.daily
}

func (s *Session) DryRun() bool {
	return s.dryRun
}

func (s *Session) now() time.Time {
	return s.clock.Now().In(s.loc)
}

// Initialize connects the terminal (when there is one), verifies the account
// and starts the day's counters. Any failure here is fatal to the process.
func (s *Session) Initialize(ctx context.Context) error {
	if s.term != nil {
		if err := s.term.Initialize(ctx, s.symbol); err != nil {
			return fmt.Errorf("initialize terminal: %w", err)
		}
	}
	equity, err := s.gw.AccountEquity(ctx)
	if err != nil {
		return fmt.Errorf("account info: %w", err)
	}
	s.resetDaily(equity)
	return nil
}

func (s *Session) resetDaily(equity float64) {
	s.daily.Reset(s.now(), equity)
	s.log.Info("[INIT] Daily counters reset", zap.Float64("equity", equity))
}

// Run repeats Step with the entry cooldown between cycles until ctx is done.
// Cycle errors are logged and the loop carries on. With once set exactly one
// cycle runs.
func (s *Session) Run(ctx context.Context, once bool) error {
	for {
		if err := s.Step(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			s.log.Error("[STATE] cycle aborted", zap.Error(err))
		}
		if once {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cooldown):
		}
	}
}
