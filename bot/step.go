package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/execbot/broker"
	"github.com/rustyeddy/execbot/journal"
	"github.com/rustyeddy/execbot/market"
	"github.com/rustyeddy/execbot/pkg/id"
	"github.com/rustyeddy/execbot/regime"
	"github.com/rustyeddy/execbot/risk"
	"go.uber.org/zap"
)

// cycle is what one Step has read from the terminal.
type cycle struct {
	id     string
	now    time.Time
	log    *zap.Logger
	equity float64
	tick   market.Tick
	spec   market.SymbolSpec
	state  regime.MarketState
}

// Step runs one decision cycle. Errors are infrastructure failures that
// aborted the cycle; rejected orders and blocked entries are not errors.
func (s *Session) Step(ctx context.Context) (err error) {
	done := s.metrics.CycleStarted()
	defer func() { done(err) }()

	if s.before != nil {
		if err := s.before(ctx); err != nil {
			return fmt.Errorf("before step: %w", err)
		}
	}

	c := &cycle{id: id.New(), now: s.now()}
	c.log = s.log.With(zap.String("cycle", c.id))

	c.equity, err = s.gw.AccountEquity(ctx)
	if err != nil {
		return fmt.Errorf("account info: %w", err)
	}
	if s.daily.Update(c.now, c.equity) {
		c.log.Info("[INIT] Daily counters reset", zap.Float64("equity", c.equity))
		s.metrics.Rollover()
	}

	c.tick, err = s.gw.Tick(ctx, s.symbol)
	if err != nil {
		return fmt.Errorf("tick %s: %w", s.symbol, err)
	}
	c.spec, err = s.gw.SymbolSpec(ctx, s.symbol)
	if err != nil {
		return fmt.Errorf("symbol info %s: %w", s.symbol, err)
	}

	spread := c.tick.SpreadPoints(c.spec.Point)
	spreadCap := s.spreads.Add(spread)

	bars, err := s.gw.Bars(ctx, s.symbol, s.tf, s.bars)
	if err != nil {
		return fmt.Errorf("rates %s: %w", s.symbol, err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("rates %s: no bars: %w", s.symbol, broker.ErrUnavailable)
	}

	c.state = regime.Classify(bars, s.params)
	ms := c.state
	c.log.Info("[STATE]",
		zap.String("regime", string(ms.Regime)),
		zap.Float64("spread", spread),
		zap.Float64("cap", spreadCap),
		optional("atr", ms.ATR, ms.ATROK),
		optional("adx", ms.ADX, ms.ADXOK),
	)
	s.metrics.Market(spread, spreadCap, ms.ATR, ms.ADX, string(ms.Regime))

	verdict := risk.DailyStop(s.daily.ChangePct(), s.daily.DDPct(), s.limits.DailyTargetPct, s.limits.DailyMaxDDPct)
	label := risk.DailyLabel(verdict, s.daily.Trades, s.limits.MaxTradesPerDay)
	c.log.Info("[RISK]",
		zap.Float64("equity", c.equity),
		zap.String("trades_today", fmt.Sprintf("%d/%d", s.daily.Trades, s.limits.MaxTradesPerDay)),
		zap.String("daily_stop", string(label)),
	)
	s.metrics.Daily(c.equity, s.daily.ChangePct(), s.daily.DDPct(), s.daily.Trades)
	s.record(c, s.journal.RecordEquity(journal.EquitySnapshot{
		Time:        c.now,
		Equity:      c.equity,
		StartEquity: s.daily.StartEquity,
		ChangePct:   s.daily.ChangePct(),
		DDPct:       s.daily.DDPct(),
		Trades:      s.daily.Trades,
		Verdict:     string(label),
	}))

	gate := risk.EvaluateGates(risk.GateInputs{
		ATR:          ms.ATR,
		ATROK:        ms.ATROK,
		ATRMin:       s.params.ATRMin,
		ADXOK:        ms.ADXOK,
		SpreadPoints: spread,
		SpreadCap:    spreadCap,
		Daily:        verdict,
		Trades:       s.daily.Trades,
		Limits:       s.limits,
	})
	if gate.Allowed {
		c.log.Info("[GATE] clear")
	} else {
		c.log.Info("[GATE] " + strings.Join(gate.Reasons(), ", "))
		for _, v := range gate.Violations {
			s.metrics.GateBlocked(v.Code)
		}
	}

	positions, err := s.gw.OpenPositions(ctx, s.symbol)
	if err != nil {
		return fmt.Errorf("positions %s: %w", s.symbol, err)
	}
	if len(positions) > 0 {
		return s.manage(ctx, c, positions)
	}

	s.daily.HedgeUsed = false

	if !gate.Allowed {
		return nil
	}
	return s.enter(ctx, c)
}

// optional logs "--" for an indicator that could not be computed.
func optional(key string, v float64, ok bool) zap.Field {
	if !ok {
		return zap.String(key, "--")
	}
	return zap.Float64(key, v)
}

// record logs a journal write failure; journaling never aborts a cycle.
func (s *Session) record(c *cycle, err error) {
	if err != nil {
		c.log.Warn("[JOURNAL] write failed", zap.Error(err))
	}
}
