package broker

import (
	"context"
	"fmt"

	"github.com/rustyeddy/execbot/market"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Adjustment records one change the legalizer made to a requested level.
type Adjustment struct {
	Field  string // "SL" or "TP"
	Reason string // "stops level" or "freeze zone"
	From   float64
	To     float64
}

// Stops is a legal SL/TP pair plus the adjustments made to reach it.
type Stops struct {
	SL          float64
	TP          float64
	Adjustments []Adjustment
}

// Legalize pushes sl and tp outside the broker's stop level (plus one point),
// rounds both to the symbol's digits and then defers sl beyond the freeze
// zone (plus one point). TP is not checked against the freeze zone. All
// arithmetic is decimal so that a legal pair round-trips unchanged.
//
// For a LONG position the SL must sit below bid and the TP above ask; SHORT
// mirrors that. Legalize is idempotent for a fixed tick.
func Legalize(dir market.Direction, spec market.SymbolSpec, tick market.Tick, sl, tp float64) Stops {
	var out Stops

	point := decimal.NewFromFloat(spec.Point)
	stops := point.Mul(decimal.NewFromInt(int64(spec.StopsLevel))).Add(point)
	freeze := point.Mul(decimal.NewFromInt(int64(spec.FreezeLevel))).Add(point)
	bid := decimal.NewFromFloat(tick.Bid)
	ask := decimal.NewFromFloat(tick.Ask)
	places := int32(spec.Digits)

	s := decimal.NewFromFloat(sl)
	t := decimal.NewFromFloat(tp)

	adjust := func(field, reason string, from, to decimal.Decimal) decimal.Decimal {
		out.Adjustments = append(out.Adjustments, Adjustment{
			Field:  field,
			Reason: reason,
			From:   from.InexactFloat64(),
			To:     to.InexactFloat64(),
		})
		return to
	}

	if dir == market.Long {
		if minSL := bid.Sub(stops); s.GreaterThan(minSL) {
			s = adjust("SL", "stops level", s, minSL)
		}
		if minTP := ask.Add(stops); t.LessThan(minTP) {
			t = adjust("TP", "stops level", t, minTP)
		}
	} else {
		if minSL := ask.Add(stops); s.LessThan(minSL) {
			s = adjust("SL", "stops level", s, minSL)
		}
		if maxTP := bid.Sub(stops); t.GreaterThan(maxTP) {
			t = adjust("TP", "stops level", t, maxTP)
		}
	}

	s = s.Round(places)
	t = t.Round(places)

	if dir == market.Long {
		if floor := bid.Sub(freeze); s.GreaterThan(floor) {
			s = adjust("SL", "freeze zone", s, floor.Round(places))
		}
	} else {
		if ceiling := ask.Add(freeze); s.LessThan(ceiling) {
			s = adjust("SL", "freeze zone", s, ceiling.Round(places))
		}
	}

	out.SL = s.InexactFloat64()
	out.TP = t.InexactFloat64()
	return out
}

// NormalizePrice rounds price to digits decimals, half up.
func NormalizePrice(price float64, digits int) float64 {
	return decimal.NewFromFloat(price).Round(int32(digits)).InexactFloat64()
}

// MakeLegalSLTP fetches the symbol spec and a fresh tick from gw and
// legalizes sl/tp against them, logging every adjustment. Lookup failures
// are wrapped in ErrInfrastructure; legalization itself never fails.
func MakeLegalSLTP(ctx context.Context, gw Gateway, log *zap.Logger, symbol string, dir market.Direction, entry, sl, tp float64) (float64, float64, error) {
	spec, err := gw.SymbolSpec(ctx, symbol)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: symbol info for %s: %w", ErrInfrastructure, symbol, err)
	}
	tick, err := gw.Tick(ctx, symbol)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: tick for %s: %w", ErrInfrastructure, symbol, err)
	}

	legal := Legalize(dir, spec, tick, sl, tp)
	for _, a := range legal.Adjustments {
		log.Info("[BROKER] "+a.Field+" adjusted for "+a.Reason,
			zap.Stringer("dir", dir),
			zap.Float64("entry", entry),
			zap.Float64("target", a.From),
			zap.Float64("adjusted", a.To),
		)
	}
	return legal.SL, legal.TP, nil
}
