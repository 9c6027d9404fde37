package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rustyeddy/execbot/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const eps = 1e-9

var (
	xau  = market.Symbols["XAUUSD"]
	tick = market.Tick{Symbol: "XAUUSD", Bid: 2000.000, Ask: 2000.300}
)

func TestLegalizeStopsLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		dir    market.Direction
		sl, tp float64
		wantSL float64
		wantTP float64
	}{
		{"long too close", market.Long, 1999.990, 2000.310, 1999.949, 2000.351},
		{"long already legal", market.Long, 1990.000, 2010.000, 1990.000, 2010.000},
		{"short too close", market.Short, 2000.320, 1999.990, 2000.351, 1999.949},
		{"short already legal", market.Short, 2010.000, 1990.000, 2010.000, 1990.000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Legalize(tt.dir, xau, tick, tt.sl, tt.tp)
			assert.InDelta(t, tt.wantSL, got.SL, eps)
			assert.InDelta(t, tt.wantTP, got.TP, eps)
		})
	}
}

func TestLegalizeMinimumDistance(t *testing.T) {
	t.Parallel()

	minDist := xau.StopsDistance() + xau.Point
	for _, sl := range []float64{1999.5, 1999.95, 2000.0, 2000.2, 2003} {
		long := Legalize(market.Long, xau, tick, sl, sl+1)
		assert.GreaterOrEqual(t, tick.Bid-long.SL, minDist-eps)
		assert.GreaterOrEqual(t, long.TP-tick.Ask, minDist-eps)

		short := Legalize(market.Short, xau, tick, sl, sl-1)
		assert.GreaterOrEqual(t, short.SL-tick.Ask, minDist-eps)
		assert.GreaterOrEqual(t, tick.Bid-short.TP, minDist-eps)
	}
}

func TestLegalizeIdempotent(t *testing.T) {
	t.Parallel()

	for _, dir := range []market.Direction{market.Long, market.Short} {
		first := Legalize(dir, xau, tick, 2000.1, 2000.1)
		second := Legalize(dir, xau, tick, first.SL, first.TP)
		assert.InDelta(t, first.SL, second.SL, eps, dir.String())
		assert.InDelta(t, first.TP, second.TP, eps, dir.String())
		assert.Empty(t, second.Adjustments, dir.String())
	}
}

func TestLegalizeFreezeZone(t *testing.T) {
	t.Parallel()

	spec := xau
	spec.StopsLevel = 0

	long := Legalize(market.Long, spec, tick, 1999.990, 2000.305)
	assert.InDelta(t, 1999.979, long.SL, eps)
	require.Len(t, long.Adjustments, 1)
	assert.Equal(t, "freeze zone", long.Adjustments[0].Reason)
	// TP inside the freeze distance of ask is left alone.
	assert.InDelta(t, 2000.305, long.TP, eps)

	short := Legalize(market.Short, spec, tick, 2000.310, 1999.995)
	assert.InDelta(t, 2000.321, short.SL, eps)
	assert.InDelta(t, 1999.995, short.TP, eps)
}

func TestNormalizePrice(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.235, NormalizePrice(1.2345, 3), eps)
	assert.InDelta(t, 1.234, NormalizePrice(1.23449, 3), eps)
	assert.InDelta(t, 2000.0, NormalizePrice(2000.0004, 3), eps)
	assert.InDelta(t, 1.10001, NormalizePrice(1.100005, 5), eps)
}

type lookupGateway struct {
	Gateway
	spec    market.SymbolSpec
	tick    market.Tick
	specErr error
	tickErr error
}

func (g lookupGateway) SymbolSpec(context.Context, string) (market.SymbolSpec, error) {
	return g.spec, g.specErr
}

func (g lookupGateway) Tick(context.Context, string) (market.Tick, error) {
	return g.tick, g.tickErr
}

func TestMakeLegalSLTP(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	gw := lookupGateway{spec: xau, tick: tick}

	sl, tp, err := MakeLegalSLTP(context.Background(), gw, zap.New(core), "XAUUSD", market.Long, 2000.3, 1999.99, 2000.31)
	require.NoError(t, err)
	assert.InDelta(t, 1999.949, sl, eps)
	assert.InDelta(t, 2000.351, tp, eps)
	assert.Equal(t, 2, logs.FilterMessage("[BROKER] SL adjusted for stops level").Len()+
		logs.FilterMessage("[BROKER] TP adjusted for stops level").Len())
}

func TestMakeLegalSLTPLookupFailure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, _, err := MakeLegalSLTP(ctx, lookupGateway{specErr: ErrUnavailable}, zap.NewNop(), "XAUUSD", market.Long, 0, 0, 0)
	assert.ErrorIs(t, err, ErrInfrastructure)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, _, err = MakeLegalSLTP(ctx, lookupGateway{spec: xau, tickErr: errors.New("socket closed")}, zap.NewNop(), "XAUUSD", market.Short, 0, 0, 0)
	assert.ErrorIs(t, err, ErrInfrastructure)
}
