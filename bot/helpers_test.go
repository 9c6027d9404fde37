package bot

import (
	"context"
	"sync"
	"time"

	"github.com/rustyeddy/execbot/broker"
	"github.com/rustyeddy/execbot/config"
	"github.com/rustyeddy/execbot/journal"
	"github.com/rustyeddy/execbot/market"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	xau = market.Symbols["XAUUSD"]

	// 150 point spread, under the 190 point base cap.
	tick = market.Tick{Symbol: "XAUUSD", Bid: 2000.000, Ask: 2000.150}

	day1 = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
)

// risingBars climbs one point per bar to a close of last. Every bar has a
// true range of 2, so ATR is 2 and ADX saturates; the final close breaks
// above the prior channel.
func risingBars(n int, last float64) []market.Bar {
	bars := make([]market.Bar, n)
	start := day1.Add(-time.Duration(n) * 5 * time.Minute)
	for i := range bars {
		c := last - float64(n-1-i)
		o := c - 1
		bars[i] = market.Bar{
			Time:  start.Add(time.Duration(i) * 5 * time.Minute),
			Open:  o,
			High:  c + 0.5,
			Low:   o - 0.5,
			Close: c,
		}
	}
	return bars
}

type modifyCall struct {
	ticket uint64
	sl, tp float64
}

// fakeGateway serves canned market data and records what was sent.
type fakeGateway struct {
	mu sync.Mutex

	equity    float64
	tick      market.Tick
	spec      market.SymbolSpec
	bars      []market.Bar
	positions []market.Position
	tickErr   error
	result    broker.OrderResult

	orders   []broker.OrderRequest
	modifies []modifyCall
	closes   []uint64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		equity: 10_000,
		tick:   tick,
		spec:   xau,
		bars:   risingBars(200, 2000),
		result: broker.OrderResult{Retcode: broker.RetcodeDone, Ticket: 42},
	}
}

func (g *fakeGateway) AccountEquity(ctx context.Context) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.equity, nil
}

func (g *fakeGateway) Tick(ctx context.Context, symbol string) (market.Tick, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tick, g.tickErr
}

func (g *fakeGateway) SymbolSpec(ctx context.Context, symbol string) (market.SymbolSpec, error) {
	return g.spec, nil
}

func (g *fakeGateway) Bars(ctx context.Context, symbol string, tf market.Timeframe, count int) ([]market.Bar, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.bars) > count {
		return g.bars[len(g.bars)-count:], nil
	}
	return g.bars, nil
}

func (g *fakeGateway) OpenPositions(ctx context.Context, symbol string) ([]market.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.positions, nil
}

func (g *fakeGateway) SubmitMarketOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = append(g.orders, req)
	return g.result, nil
}

func (g *fakeGateway) ModifyPositionStops(ctx context.Context, ticket uint64, sl, tp float64) (broker.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modifies = append(g.modifies, modifyCall{ticket, sl, tp})
	return g.result, nil
}

func (g *fakeGateway) ClosePosition(ctx context.Context, ticket uint64, symbol string) (broker.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closes = append(g.closes, ticket)
	return g.result, nil
}

type memJournal struct {
	entries []journal.EntryRecord
	manages []journal.ManageRecord
	equity  []journal.EquitySnapshot
}

func (j *memJournal) RecordEntry(r journal.EntryRecord) error {
	j.entries = append(j.entries, r)
	return nil
}

func (j *memJournal) RecordManage(r journal.ManageRecord) error {
	j.manages = append(j.manages, r)
	return nil
}

func (j *memJournal) RecordEquity(s journal.EquitySnapshot) error {
	j.equity = append(j.equity, s)
	return nil
}

func (j *memJournal) Close() error { return nil }

// fixture is a session wired to a fake terminal, an in-memory journal and
// an observed logger.
type fixture struct {
	s    *Session
	gw   *fakeGateway
	j    *memJournal
	logs *observer.ObservedLogs
	now  *time.Time
}

func newFixture(mutate func(*config.Config), opts ...Option) *fixture {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	f := &fixture{gw: newFakeGateway(), j: &memJournal{}}
	now := day1
	f.now = &now

	core, logs := observer.New(zap.DebugLevel)
	f.logs = logs

	opts = append([]Option{
		WithLogger(zap.New(core)),
		WithJournal(f.j),
		WithClock(ClockFunc(func() time.Time { return *f.now })),
	}, opts...)
	f.s = NewSession(cfg, f.gw, opts...)
	return f
}
