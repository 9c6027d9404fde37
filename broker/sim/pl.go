package sim

import "github.com/rustyeddy/execbot/market"

// UnrealizedPL is the account-currency P&L of p marked at price.
func UnrealizedPL(p market.Position, spec market.SymbolSpec, price float64) float64 {
	move := price - p.PriceOpen
	if p.Direction == market.Short {
		move = -move
	}
	return move * spec.DollarsPerPriceUnit() * p.Volume
}
