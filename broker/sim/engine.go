// Package sim is an in-memory trading terminal. It fills market orders at
// the current tick, enforces stop and freeze levels the way a live terminal
// does and triggers stops and targets as prices move.
package sim

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/rustyeddy/execbot/broker"
	"github.com/rustyeddy/execbot/market"
	"go.uber.org/zap"
)

type Engine struct {
	mu sync.Mutex

	log       *zap.Logger
	balance   float64
	specs     map[string]market.SymbolSpec
	ticks     map[string]market.Tick
	bars      map[string][]market.Bar
	positions map[uint64]*market.Position
	history   []ClosedTrade
	nextID    uint64
	selected  map[string]bool
	walks     map[string]*walker
}

var _ broker.Terminal = (*Engine)(nil)

// NewEngine returns a terminal holding balance and knowing the given symbols.
func NewEngine(balance float64, log *zap.Logger, specs ...market.SymbolSpec) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		log:       log,
		balance:   balance,
		specs:     make(map[string]market.SymbolSpec),
		ticks:     make(map[string]market.Tick),
		bars:      make(map[string][]market.Bar),
		positions: make(map[uint64]*market.Position),
		selected:  make(map[string]bool),
		walks:     make(map[string]*walker),
		nextID:    1,
	}
	for _, s := range specs {
		e.specs[s.Name] = s
	}
	return e
}

func (e *Engine) Initialize(ctx context.Context, symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.specs[symbol]; !ok {
		return fmt.Errorf("select %s: %w", symbol, broker.ErrUnavailable)
	}
	e.selected[symbol] = true
	return nil
}

func (e *Engine) Close() error {
	return nil
}

// SetBars replaces the bar history for symbol.
func (e *Engine) SetBars(symbol string, bars []market.Bar) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bars[symbol] = slices.Clone(bars)
}

// Balance is the realized account balance.
func (e *Engine) Balance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

// History returns closed trades, oldest first.
func (e *Engine) History() []ClosedTrade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.history)
}

func (e *Engine) AccountEquity(ctx context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.equityLocked(), nil
}

func (e *Engine) Tick(ctx context.Context, symbol string) (market.Tick, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.ticks[symbol]
	if !ok {
		return market.Tick{}, fmt.Errorf("tick %s: %w", symbol, broker.ErrUnavailable)
	}
	return t, nil
}

func (e *Engine) SymbolSpec(ctx context.Context, symbol string) (market.SymbolSpec, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.specs[symbol]
	if !ok {
		return market.SymbolSpec{}, fmt.Errorf("symbol %s: %w", symbol, broker.ErrUnavailable)
	}
	return s, nil
}

// Bars returns up to count of the most recent bars, newest last.
func (e *Engine) Bars(ctx context.Context, symbol string, tf market.Timeframe, count int) ([]market.Bar, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bars := e.bars[symbol]
	if len(bars) == 0 {
		return nil, fmt.Errorf("bars %s %s: %w", symbol, tf, broker.ErrUnavailable)
	}
	if count > 0 && count < len(bars) {
		bars = bars[len(bars)-count:]
	}
	return slices.Clone(bars), nil
}

// OpenPositions returns copies of the open positions on symbol, ordered by
// ticket, with Profit marked to the current tick.
func (e *Engine) OpenPositions(ctx context.Context, symbol string) ([]market.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]market.Position, 0, len(e.positions))
	for _, p := range e.positions {
		if p.Symbol != symbol {
			continue
		}
		cp := *p
		if t, ok := e.ticks[symbol]; ok {
			cp.Profit = UnrealizedPL(cp, e.specs[symbol], t.ExitPrice(cp.Direction))
		}
		out = append(out, cp)
	}
	slices.SortFunc(out, func(a, b market.Position) int {
		return cmp.Compare(a.Ticket, b.Ticket)
	})
	return out, nil
}

func (e *Engine) SubmitMarketOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	spec, ok := e.specs[req.Symbol]
	if !ok {
		return broker.OrderResult{}, fmt.Errorf("order %s: %w", req.Symbol, broker.ErrUnavailable)
	}
	t, ok := e.ticks[req.Symbol]
	if !ok {
		return broker.OrderResult{}, fmt.Errorf("order %s: no tick: %w", req.Symbol, broker.ErrUnavailable)
	}

	if !validVolume(spec, req.Volume) {
		return reject(broker.RetcodeInvalidVolume, "invalid volume"), nil
	}
	if req.Direction != market.Long && req.Direction != market.Short {
		return reject(broker.RetcodeInvalid, "invalid direction"), nil
	}
	if !stopsOutside(spec, t, req.Direction, req.StopLoss, req.TakeProfit, spec.StopsDistance()) {
		return reject(broker.RetcodeInvalidStops, "invalid stops"), nil
	}

	price := t.EntryPrice(req.Direction)
	if req.DryRun {
		return broker.OrderResult{Retcode: broker.RetcodeDone, Price: price, Volume: req.Volume, Comment: "checked"}, nil
	}
	p := &market.Position{
		Ticket:     e.nextID,
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Volume:     req.Volume,
		PriceOpen:  price,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Comment:    req.Comment,
		OpenTime:   t.Time,
	}
	e.positions[p.Ticket] = p
	e.nextID++

	e.log.Debug("sim fill",
		zap.Uint64("ticket", p.Ticket),
		zap.Stringer("dir", p.Direction),
		zap.Float64("volume", p.Volume),
		zap.Float64("price", price),
	)

	return broker.OrderResult{
		Retcode: broker.RetcodeDone,
		Ticket:  p.Ticket,
		Price:   price,
		Volume:  p.Volume,
		Comment: "done",
	}, nil
}

func (e *Engine) ModifyPositionStops(ctx context.Context, ticket uint64, sl, tp float64) (broker.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[ticket]
	if !ok {
		return broker.OrderResult{}, fmt.Errorf("modify ticket %d: %w", ticket, broker.ErrUnavailable)
	}
	if p.StopLoss == sl && p.TakeProfit == tp {
		return broker.OrderResult{Retcode: broker.RetcodeNoChanges, Ticket: ticket, Comment: "no changes"}, nil
	}

	spec := e.specs[p.Symbol]
	t := e.ticks[p.Symbol]

	// An existing level inside the freeze zone locks the position.
	if !stopsOutside(spec, t, p.Direction, p.StopLoss, p.TakeProfit, spec.FreezeDistance()) {
		return reject(broker.RetcodeFrozen, "frozen"), nil
	}
	if !stopsOutside(spec, t, p.Direction, sl, tp, spec.StopsDistance()) {
		return reject(broker.RetcodeInvalidStops, "invalid stops"), nil
	}

	p.StopLoss, p.TakeProfit = sl, tp
	return broker.OrderResult{Retcode: broker.RetcodeDone, Ticket: ticket, Comment: "done"}, nil
}

func (e *Engine) ClosePosition(ctx context.Context, ticket uint64, symbol string) (broker.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[ticket]
	if !ok || p.Symbol != symbol {
		return broker.OrderResult{}, fmt.Errorf("close ticket %d: %w", ticket, broker.ErrUnavailable)
	}
	t, ok := e.ticks[symbol]
	if !ok {
		return broker.OrderResult{}, fmt.Errorf("close ticket %d: no tick: %w", ticket, broker.ErrUnavailable)
	}

	price := t.ExitPrice(p.Direction)
	e.closeLocked(p, price, t, "close")
	return broker.OrderResult{
		Retcode: broker.RetcodeDone,
		Ticket:  ticket,
		Price:   price,
		Volume:  p.Volume,
		Comment: "done",
	}, nil
}

// UpdatePrice publishes a tick and closes positions whose stop or target
// it crosses. Longs mark on bid, shorts on ask.
func (e *Engine) UpdatePrice(t market.Tick) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updatePriceLocked(t)
}

func (e *Engine) updatePriceLocked(t market.Tick) {
	e.ticks[t.Symbol] = t

	for _, p := range e.positions {
		if p.Symbol != t.Symbol {
			continue
		}
		mark := t.ExitPrice(p.Direction)
		switch {
		case triggerStopLoss(p, mark):
			e.closeLocked(p, mark, t, "StopLoss")
		case triggerTakeProfit(p, mark):
			e.closeLocked(p, mark, t, "TakeProfit")
		}
	}
}

func (e *Engine) closeLocked(p *market.Position, price float64, t market.Tick, reason string) {
	pl := UnrealizedPL(*p, e.specs[p.Symbol], price)
	e.balance += pl
	delete(e.positions, p.Ticket)

	e.history = append(e.history, ClosedTrade{
		Ticket:     p.Ticket,
		Symbol:     p.Symbol,
		Direction:  p.Direction,
		Volume:     p.Volume,
		EntryPrice: p.PriceOpen,
		ExitPrice:  price,
		OpenTime:   p.OpenTime,
		CloseTime:  t.Time,
		RealizedPL: pl,
		Reason:     reason,
	})
	e.log.Debug("sim close",
		zap.Uint64("ticket", p.Ticket),
		zap.String("reason", reason),
		zap.Float64("pl", pl),
	)
}

func (e *Engine) equityLocked() float64 {
	equity := e.balance
	for _, p := range e.positions {
		t, ok := e.ticks[p.Symbol]
		if !ok {
			continue
		}
		equity += UnrealizedPL(*p, e.specs[p.Symbol], t.ExitPrice(p.Direction))
	}
	return equity
}

func reject(code broker.Retcode, comment string) broker.OrderResult {
	return broker.OrderResult{Retcode: code, Comment: comment}
}

func validVolume(spec market.SymbolSpec, v float64) bool {
	if v < spec.VolumeMin || v > spec.VolumeMax {
		return false
	}
	if spec.VolumeStep <= 0 {
		return true
	}
	steps := v / spec.VolumeStep
	return math.Abs(steps-math.Round(steps)) < 1e-6
}

// stopsOutside reports whether non-zero sl and tp sit at least dist away from
// the side of the market they protect. A zero level is not set.
func stopsOutside(spec market.SymbolSpec, t market.Tick, dir market.Direction, sl, tp, dist float64) bool {
	eps := spec.Point / 2
	if dir == market.Long {
		if sl != 0 && t.Bid-sl < dist-eps {
			return false
		}
		if tp != 0 && tp-t.Ask < dist-eps {
			return false
		}
		return true
	}
	if sl != 0 && sl-t.Ask < dist-eps {
		return false
	}
	if tp != 0 && t.Bid-tp < dist-eps {
		return false
	}
	return true
}
