package bridge

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/execbot/broker"
	"github.com/rustyeddy/execbot/market"
)

// Wire types of the bridge REST API. Times are unix seconds except tick
// times, which are unix milliseconds.

type statusDTO struct {
	Connected bool   `json:"connected"`
	Terminal  string `json:"terminal"`
}

type accountDTO struct {
	Login    int64   `json:"login"`
	Balance  float64 `json:"balance"`
	Equity   float64 `json:"equity"`
	Currency string  `json:"currency"`
}

type tickDTO struct {
	TimeMsc int64   `json:"time_msc"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
}

func (t tickDTO) tick(symbol string) market.Tick {
	return market.Tick{
		Symbol: symbol,
		Time:   time.UnixMilli(t.TimeMsc).UTC(),
		Bid:    t.Bid,
		Ask:    t.Ask,
	}
}

type symbolDTO struct {
	Point            float64 `json:"point"`
	Digits           int     `json:"digits"`
	VolumeMin        float64 `json:"volume_min"`
	VolumeMax        float64 `json:"volume_max"`
	VolumeStep       float64 `json:"volume_step"`
	VolumePrecision  *int    `json:"volume_precision"`
	TradeStopsLevel  int     `json:"trade_stops_level"`
	TradeFreezeLevel int     `json:"trade_freeze_level"`
	ContractSize     float64 `json:"trade_contract_size"`
	TickValue        float64 `json:"trade_tick_value"`
	TickSize         float64 `json:"trade_tick_size"`
}

func (s symbolDTO) spec(name string) market.SymbolSpec {
	precision := 2
	if s.VolumePrecision != nil {
		precision = *s.VolumePrecision
	}
	return market.SymbolSpec{
		Name:            name,
		Point:           s.Point,
		Digits:          s.Digits,
		VolumeMin:       s.VolumeMin,
		VolumeMax:       s.VolumeMax,
		VolumeStep:      s.VolumeStep,
		VolumePrecision: precision,
		StopsLevel:      s.TradeStopsLevel,
		FreezeLevel:     s.TradeFreezeLevel,
		ContractSize:    s.ContractSize,
		TickValue:       s.TickValue,
		TickSize:        s.TickSize,
	}
}

type barDTO struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

type barsDTO struct {
	Bars []barDTO `json:"bars"`
}

type positionDTO struct {
	Ticket    uint64  `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Type      string  `json:"type"`
	Volume    float64 `json:"volume"`
	PriceOpen float64 `json:"price_open"`
	SL        float64 `json:"sl"`
	TP        float64 `json:"tp"`
	Profit    float64 `json:"profit"`
	Comment   string  `json:"comment"`
	Time      int64   `json:"time"`
}

func (p positionDTO) position() (market.Position, error) {
	var dir market.Direction
	switch strings.ToUpper(p.Type) {
	case "BUY":
		dir = market.Long
	case "SELL":
		dir = market.Short
	default:
		return market.Position{}, fmt.Errorf("unknown position type %q", p.Type)
	}
	return market.Position{
		Ticket:     p.Ticket,
		Symbol:     p.Symbol,
		Direction:  dir,
		Volume:     p.Volume,
		PriceOpen:  p.PriceOpen,
		StopLoss:   p.SL,
		TakeProfit: p.TP,
		Profit:     p.Profit,
		Comment:    p.Comment,
		OpenTime:   time.Unix(p.Time, 0).UTC(),
	}, nil
}

type positionsDTO struct {
	Positions []positionDTO `json:"positions"`
}

type orderDTO struct {
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Volume     float64 `json:"volume"`
	Price      float64 `json:"price"`
	StopLoss   float64 `json:"sl"`
	TakeProfit float64 `json:"tp"`
	Deviation  int     `json:"deviation"`
	Comment    string  `json:"comment"`
	CheckOnly  bool    `json:"check_only,omitempty"`
}

func orderType(d market.Direction) string {
	if d == market.Short {
		return "SELL"
	}
	return "BUY"
}

type sltpDTO struct {
	StopLoss   float64 `json:"sl"`
	TakeProfit float64 `json:"tp"`
}

type closeDTO struct {
	Symbol string `json:"symbol"`
}

type resultDTO struct {
	Retcode int     `json:"retcode"`
	Order   uint64  `json:"order"`
	Price   float64 `json:"price"`
	Volume  float64 `json:"volume"`
	Comment string  `json:"comment"`
}

func (r resultDTO) result() broker.OrderResult {
	return broker.OrderResult{
		Retcode: broker.Retcode(r.Retcode),
		Ticket:  r.Order,
		Price:   r.Price,
		Volume:  r.Volume,
		Comment: r.Comment,
	}
}
