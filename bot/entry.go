package bot

import (
	"context"
	"fmt"

	"github.com/rustyeddy/execbot/broker"
	"github.com/rustyeddy/execbot/journal"
	"github.com/rustyeddy/execbot/market"
	"github.com/rustyeddy/execbot/pkg/id"
	"github.com/rustyeddy/execbot/risk"
	"go.uber.org/zap"
)

const (
	entryComment = "bot_entry"
	hedgeComment = "hedge"

	// deviation is the slippage in points a market order accepts.
	deviation = 20
)

// enter sizes and places a new position when flat and the gates are clear.
func (s *Session) enter(ctx context.Context, c *cycle) error {
	ms := c.state
	switch {
	case ms.Signal != market.Long && ms.Signal != market.Short:
		c.log.Info("[GATE] no_trade: regime UNSURE")
		return nil
	case ms.SizeFactor <= 0:
		c.log.Info("[GATE] no_trade: size factor 0")
		return nil
	case s.limits.MaxConcurrentPos <= 0:
		c.log.Info("[GATE] no_trade: max concurrent 0")
		return nil
	}

	dir := ms.Signal
	stop := s.mgmt.SLATRMult * ms.ATR
	riskPct := s.limits.RiskPctPerTrade * ms.SizeFactor

	lots, err := risk.LotsForRisk(c.spec, c.equity, riskPct, stop)
	if err != nil {
		c.log.Error("[ENTRY] sizing_error", zap.Error(err))
		s.metrics.Entry(dir.String(), "error")
		return nil
	}
	if lots <= 0 {
		c.log.Info("[GATE] no_trade: lot size<=0")
		return nil
	}

	price := c.tick.EntryPrice(dir)
	sl, tp := bracket(dir, price, stop, stop*s.mgmt.TPRMult)
	sl, tp, err = broker.MakeLegalSLTP(ctx, s.gw, c.log, s.symbol, dir, price, sl, tp)
	if err != nil {
		return fmt.Errorf("legalize entry: %w", err)
	}
	lots = risk.NormalizeVolume(c.spec, lots)
	rValue := risk.TradeRiskDollars(c.spec, lots, stop)

	c.log.Info("[ENTRY]",
		zap.Stringer("side", dir),
		zap.Float64("lot", lots),
		zap.Float64("price", price),
		zap.Float64("sl", sl),
		zap.Float64("tp", tp),
		zap.Float64("r_dollars", rValue),
		zap.Float64("risk_pct", risk.RiskPct(rValue, c.equity)),
		zap.Float64("rr", risk.RR(price, sl, tp)),
	)

	rec := journal.EntryRecord{
		ID:          id.NewAt(c.now),
		Time:        c.now,
		Symbol:      s.symbol,
		Direction:   dir.String(),
		Regime:      string(ms.Regime),
		SizeFactor:  ms.SizeFactor,
		Volume:      lots,
		Price:       price,
		StopLoss:    sl,
		TakeProfit:  tp,
		RiskDollars: rValue,
		DryRun:      s.dryRun,
		Comment:     entryComment,
	}

	if s.dryRun {
		c.log.Info("[ENTRY] dryrun active - order not sent")
		s.daily.Trades++
		s.metrics.Entry(dir.String(), "dryrun")
		s.record(c, s.journal.RecordEntry(rec))
		return nil
	}

	res, err := s.gw.SubmitMarketOrder(ctx, broker.OrderRequest{
		Symbol:     s.symbol,
		Direction:  dir,
		Volume:     lots,
		Price:      price,
		StopLoss:   sl,
		TakeProfit: tp,
		Comment:    entryComment,
		Deviation:  deviation,
	})
	if err != nil {
		s.metrics.Entry(dir.String(), "error")
		return fmt.Errorf("send entry: %w", err)
	}

	rec.Retcode = int(res.Retcode)
	rec.Ticket = res.Ticket
	if res.OK() {
		s.daily.Trades++
		s.metrics.Entry(dir.String(), "filled")
		c.log.Info("[ENTRY] filled", zap.Uint64("ticket", res.Ticket), zap.Float64("fill", res.Price))
	} else {
		s.metrics.Entry(dir.String(), "rejected")
		c.log.Error("[ENTRY] order failed",
			zap.Stringer("retcode", res.Retcode),
			zap.String("comment", res.Comment),
		)
	}
	s.record(c, s.journal.RecordEntry(rec))
	return nil
}

// bracket places SL and TP around price at the given distances.
func bracket(dir market.Direction, price, stop, target float64) (sl, tp float64) {
	if dir == market.Short {
		return price + stop, price - target
	}
	return price - stop, price + target
}
