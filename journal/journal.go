// Package journal persists what the bot decided and did: entries, position
// management actions and per-cycle equity.
package journal

import (
	"time"
)

// EntryRecord is one entry attempt that reached the order stage.
type EntryRecord struct {
	ID          string
	Time        time.Time
	Symbol      string
	Direction   string
	Regime      string
	SizeFactor  float64
	Volume      float64
	Price       float64
	StopLoss    float64
	TakeProfit  float64
	RiskDollars float64
	Retcode     int
	Ticket      uint64
	DryRun      bool
	Comment     string
}

// ManageRecord is one management action on an open position.
type ManageRecord struct {
	ID        string
	Time      time.Time
	Ticket    uint64
	Symbol    string
	Direction string
	Action    string
	RMultiple float64
	OldSL     float64
	NewSL     float64
	Retcode   int
	OK        bool
	DryRun    bool
	Note      string
}

// EquitySnapshot is the daily risk state as of one cycle.
type EquitySnapshot struct {
	Time        time.Time
	Equity      float64
	StartEquity float64
	ChangePct   float64
	DDPct       float64
	Trades      int
	Verdict     string
}

type Journal interface {
	RecordEntry(EntryRecord) error
	RecordManage(ManageRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Discard is a Journal that drops everything.
type Discard struct{}

func (Discard) RecordEntry(EntryRecord) error { return nil }
func (Discard) RecordManage(ManageRecord) error { return nil }
func (Discard) RecordEquity(EquitySnapshot) error { return nil }
func (Discard) Close() error { return nil }
