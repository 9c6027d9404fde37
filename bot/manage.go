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

// manage applies the management policy to every open position. Gates do not
// apply here; management runs whatever the daily verdict.
func (s *Session) manage(ctx context.Context, c *cycle, positions []market.Position) error {
	atr := c.state.ATR
	if !c.state.ATROK || atr <= 0 {
		c.log.Info("[MX] ATR unavailable for management")
		return nil
	}

	for _, p := range positions {
		price := c.tick.ExitPrice(p.Direction)
		stop := p.StopDistance()
		if stop <= 0 {
			stop = s.mgmt.SLATRMult * atr
		}

		rValue := risk.TradeRiskDollars(c.spec, p.Volume, stop)
		action := risk.ManageOpenTrade(p.Profit, rValue, s.mgmt.BETriggerR, s.mgmt.TrailAfterR)
		rMult := risk.RMultiple(p.Profit, rValue)

		c.log.Info("[MX]",
			zap.Uint64("ticket", p.Ticket),
			zap.String("action", string(action)),
			zap.Float64("r_mult", rMult),
			zap.Float64("pnl", p.Profit),
		)

		rec := journal.ManageRecord{
			ID:        id.NewAt(c.now),
			Time:      c.now,
			Ticket:    p.Ticket,
			Symbol:    p.Symbol,
			Direction: p.Direction.String(),
			Action:    string(action),
			RMultiple: rMult,
			OldSL:     p.StopLoss,
			NewSL:     p.StopLoss,
			DryRun:    s.dryRun,
		}

		var err error
		switch action {
		case risk.Breakeven:
			err = s.breakeven(ctx, c, p, &rec)
		case risk.Trail:
			err = s.trail(ctx, c, p, price, atr, &rec)
		case risk.CutOrHedge:
			err = s.cutOrHedge(ctx, c, p, price, atr, &rec)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("%s ticket %d: %w", action, p.Ticket, err)
		}
	}
	return nil
}

// breakeven moves the stop to the entry price unless it is already there
// or better. The take profit is left as it is.
func (s *Session) breakeven(ctx context.Context, c *cycle, p market.Position, rec *journal.ManageRecord) error {
	entry := p.PriceOpen
	if p.Direction == market.Long && p.StopLoss >= entry ||
		p.Direction == market.Short && p.StopLoss != 0 && p.StopLoss <= entry {
		c.log.Info("[BROKER] Breakeven SL already in place", zap.Uint64("ticket", p.Ticket))
		return nil
	}

	sl, _, err := broker.MakeLegalSLTP(ctx, s.gw, c.log, p.Symbol, p.Direction, entry, entry, p.TakeProfit)
	if err != nil {
		return err
	}
	if p.StopLoss != 0 && !tighter(p.Direction, sl, p.StopLoss) {
		c.log.Debug("[BROKER] Breakeven SL would loosen stop",
			zap.Uint64("ticket", p.Ticket),
			zap.Float64("sl", sl),
			zap.Float64("current", p.StopLoss),
		)
		return nil
	}
	c.log.Info("[BROKER] Moving SL to breakeven", zap.Uint64("ticket", p.Ticket), zap.Float64("sl", sl))
	return s.modify(ctx, c, p, sl, rec)
}

// trail tightens the stop to trail_atr_mult*ATR behind price. The stop only
// ever moves in the position's favour.
func (s *Session) trail(ctx context.Context, c *cycle, p market.Position, price, atr float64, rec *journal.ManageRecord) error {
	dist := s.mgmt.TrailATRMult * atr
	current := p.StopLoss

	var candidate float64
	if p.Direction == market.Long {
		candidate = max(current, price-dist)
	} else {
		ref := current
		if ref == 0 {
			ref = price + dist
		}
		candidate = min(ref, price+dist)
	}

	if current != 0 && !tighter(p.Direction, candidate, current) {
		c.log.Debug("[BROKER] Trail not applied",
			zap.Uint64("ticket", p.Ticket),
			zap.Float64("desired", candidate),
			zap.Float64("current", current),
		)
		return nil
	}

	sl, _, err := broker.MakeLegalSLTP(ctx, s.gw, c.log, p.Symbol, p.Direction, p.PriceOpen, candidate, p.TakeProfit)
	if err != nil {
		return err
	}
	if p.Direction == market.Long && sl <= current ||
		p.Direction == market.Short && (current == 0 || sl >= current) {
		c.log.Debug("[BROKER] Adjusted SL does not tighten",
			zap.Uint64("ticket", p.Ticket),
			zap.Float64("sl", sl),
			zap.Float64("current", current),
		)
		return nil
	}

	c.log.Info("[BROKER] Trailing SL", zap.Uint64("ticket", p.Ticket), zap.Float64("sl", sl))
	return s.modify(ctx, c, p, sl, rec)
}

func tighter(dir market.Direction, candidate, current float64) bool {
	if dir == market.Short {
		return candidate < current
	}
	return candidate > current
}

// modify submits a new stop with the position's existing take profit.
func (s *Session) modify(ctx context.Context, c *cycle, p market.Position, sl float64, rec *journal.ManageRecord) error {
	rec.NewSL = sl
	if s.dryRun {
		rec.OK = true
		rec.Note = "dryrun"
		s.metrics.Manage(rec.Action, "dryrun")
		s.record(c, s.journal.RecordManage(*rec))
		return nil
	}

	res, err := s.gw.ModifyPositionStops(ctx, p.Ticket, sl, p.TakeProfit)
	if err != nil {
		return err
	}
	rec.Retcode = int(res.Retcode)
	rec.OK = res.Modified()
	if rec.OK {
		s.metrics.Manage(rec.Action, "ok")
	} else {
		rec.Note = res.Comment
		s.metrics.Manage(rec.Action, "rejected")
		c.log.Error("[BROKER] SL modification failed",
			zap.Uint64("ticket", p.Ticket),
			zap.String("action", rec.Action),
			zap.Stringer("retcode", res.Retcode),
			zap.String("comment", res.Comment),
		)
	}
	s.record(c, s.journal.RecordManage(*rec))
	return nil
}

// cutOrHedge opens one opposite leg of equal volume per day when hedging is
// allowed, and otherwise closes the losing position.
func (s *Session) cutOrHedge(ctx context.Context, c *cycle, p market.Position, price, atr float64, rec *journal.ManageRecord) error {
	if !s.limits.AllowSingleHedge || s.daily.HedgeUsed {
		return s.cut(ctx, c, p, rec)
	}

	dir := p.Direction.Opposite()
	stop := s.mgmt.SLATRMult * atr
	sl, tp := bracket(dir, price, stop, stop*s.mgmt.TPRMult)
	sl, tp, err := broker.MakeLegalSLTP(ctx, s.gw, c.log, p.Symbol, dir, price, sl, tp)
	if err != nil {
		return err
	}
	volume := risk.NormalizeVolume(c.spec, p.Volume)

	c.log.Info("[HEDGE] placing hedge",
		zap.Stringer("dir", dir),
		zap.Float64("lot", volume),
		zap.Float64("price", price),
		zap.Float64("sl", sl),
		zap.Float64("tp", tp),
	)

	rec.Note = "hedge"
	rec.OK = true
	if !s.dryRun {
		res, err := s.gw.SubmitMarketOrder(ctx, broker.OrderRequest{
			Symbol:     p.Symbol,
			Direction:  dir,
			Volume:     volume,
			Price:      price,
			StopLoss:   sl,
			TakeProfit: tp,
			Comment:    hedgeComment,
			Deviation:  deviation,
		})
		if err != nil {
			return fmt.Errorf("send hedge: %w", err)
		}
		rec.Retcode = int(res.Retcode)
		rec.OK = res.OK()
		if !rec.OK {
			c.log.Error("[HEDGE] hedge order failed",
				zap.Stringer("retcode", res.Retcode),
				zap.String("comment", res.Comment),
			)
		}
	}
	// The allowance is spent on the attempt, filled or not.
	s.daily.HedgeUsed = true

	s.metrics.Manage(rec.Action, result(rec.OK, s.dryRun))
	s.record(c, s.journal.RecordManage(*rec))
	return nil
}

func (s *Session) cut(ctx context.Context, c *cycle, p market.Position, rec *journal.ManageRecord) error {
	c.log.Info("[HEDGE] closing losing leg", zap.Uint64("ticket", p.Ticket))

	rec.Note = "close"
	rec.OK = true
	if !s.dryRun {
		res, err := s.gw.ClosePosition(ctx, p.Ticket, p.Symbol)
		if err != nil {
			return fmt.Errorf("close position: %w", err)
		}
		rec.Retcode = int(res.Retcode)
		rec.OK = res.OK()
		if !rec.OK {
			c.log.Error("[BROKER] close failed",
				zap.Uint64("ticket", p.Ticket),
				zap.Stringer("retcode", res.Retcode),
				zap.String("comment", res.Comment),
			)
		}
	}

	s.metrics.Manage(rec.Action, result(rec.OK, s.dryRun))
	s.record(c, s.journal.RecordManage(*rec))
	return nil
}

func result(ok, dryRun bool) string {
	switch {
	case dryRun:
		return "dryrun"
	case ok:
		return "ok"
	default:
		return "rejected"
	}
}
