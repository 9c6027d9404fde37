// Package broker defines the terminal capability the bot trades through and
// the stop/target legalizer that keeps SL/TP requests inside broker limits.
package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/execbot/market"
)

var (
	// ErrUnavailable means the terminal has no data for the request (no
	// symbol, no tick, no bars, no such position).
	ErrUnavailable = errors.New("broker: data unavailable")

	// ErrInfrastructure marks failures of the terminal link itself rather
	// than of the trading decision.
	ErrInfrastructure = errors.New("broker: infrastructure failure")
)

// Gateway is everything the decision engine needs from a trading terminal.
type Gateway interface {
	AccountEquity(ctx context.Context) (float64, error)
	Tick(ctx context.Context, symbol string) (market.Tick, error)
	SymbolSpec(ctx context.Context, symbol string) (market.SymbolSpec, error)
	Bars(ctx context.Context, symbol string, tf market.Timeframe, count int) ([]market.Bar, error)
	OpenPositions(ctx context.Context, symbol string) ([]market.Position, error)

	SubmitMarketOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	ModifyPositionStops(ctx context.Context, ticket uint64, sl, tp float64) (OrderResult, error)
	ClosePosition(ctx context.Context, ticket uint64, symbol string) (OrderResult, error)
}

// Terminal is a Gateway with a connection lifecycle.
type Terminal interface {
	Gateway

	// Initialize connects, selects symbol for trading and verifies the
	// account is readable.
	Initialize(ctx context.Context, symbol string) error
	Close() error
}

// OrderRequest is built fresh for every market order and never persisted.
type OrderRequest struct {
	Symbol     string
	Direction  market.Direction
	Volume     float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Comment    string
	Deviation  int
	DryRun     bool
}

// Retcode is a terminal trade result code.
type Retcode int

const (
	RetcodeRejected      Retcode = 10006
	RetcodeDone          Retcode = 10009
	RetcodeInvalid       Retcode = 10013
	RetcodeInvalidVolume Retcode = 10014
	RetcodeInvalidStops  Retcode = 10016
	RetcodeMarketClosed  Retcode = 10018
	RetcodeNoMoney       Retcode = 10019
	RetcodeNoChanges     Retcode = 10025
	RetcodeFrozen        Retcode = 10029
)

var retcodeNames = map[Retcode]string{
	RetcodeRejected:      "REJECT",
	RetcodeDone:          "DONE",
	RetcodeInvalid:       "INVALID",
	RetcodeInvalidVolume: "INVALID_VOLUME",
	RetcodeInvalidStops:  "INVALID_STOPS",
	RetcodeMarketClosed:  "MARKET_CLOSED",
	RetcodeNoMoney:       "NO_MONEY",
	RetcodeNoChanges:     "NO_CHANGES",
	RetcodeFrozen:        "FROZEN",
}

func (r Retcode) String() string {
	if s, ok := retcodeNames[r]; ok {
		return s
	}
	return fmt.Sprintf("RETCODE_%d", int(r))
}

// OrderResult is the terminal's answer to a trade request.
type OrderResult struct {
	Retcode Retcode
	Ticket  uint64
	Price   float64
	Volume  float64
	Comment string
}

// OK reports success for entries and closes.
func (r OrderResult) OK() bool {
	return r.Retcode == RetcodeDone
}

// Modified reports success for stop modifications, where an unchanged stop
// counts as success.
func (r OrderResult) Modified() bool {
	return r.Retcode == RetcodeDone || r.Retcode == RetcodeNoChanges
}
