package bot

import (
	"context"
	"time"

	"github.com/rustyeddy/execbot/broker"
	"github.com/rustyeddy/execbot/market"
)

// timeoutGateway bounds every gateway call with its own deadline.
type timeoutGateway struct {
	gw broker.Gateway
	d  time.Duration
}

func withTimeout(gw broker.Gateway, d time.Duration) broker.Gateway {
	if d <= 0 {
		return gw
	}
	return &timeoutGateway{gw: gw, d: d}
}

func (g *timeoutGateway) AccountEquity(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.gw.AccountEquity(ctx)
}

func (g *timeoutGateway) Tick(ctx context.Context, symbol string) (market.Tick, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.gw.Tick(ctx, symbol)
}

func (g *timeoutGateway) SymbolSpec(ctx context.Context, symbol string) (market.SymbolSpec, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.gw.SymbolSpec(ctx, symbol)
}

func (g *timeoutGateway) Bars(ctx context.Context, symbol string, tf market.Timeframe, count int) ([]market.Bar, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.gw.Bars(ctx, symbol, tf, count)
}

func (g *timeoutGateway) OpenPositions(ctx context.Context, symbol string) ([]market.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.gw.OpenPositions(ctx, symbol)
}

func (g *timeoutGateway) SubmitMarketOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.gw.SubmitMarketOrder(ctx, req)
}

func (g *timeoutGateway) ModifyPositionStops(ctx context.Context, ticket uint64, sl, tp float64) (broker.OrderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.gw.ModifyPositionStops(ctx, ticket, sl, tp)
}

func (g *timeoutGateway) ClosePosition(ctx context.Context, ticket uint64, symbol string) (broker.OrderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.gw.ClosePosition(ctx, ticket, symbol)
}
