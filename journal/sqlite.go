package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the journal database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordEntry(e EntryRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO entries
		(id, time, symbol, direction, regime, size_factor, volume, price, sl, tp, risk_dollars, retcode, ticket, dry_run, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UTC(), e.Symbol, e.Direction, e.Regime, e.SizeFactor, e.Volume,
		e.Price, e.StopLoss, e.TakeProfit, e.RiskDollars, e.Retcode, int64(e.Ticket), e.DryRun, e.Comment,
	)
	return err
}

func (j *SQLite) RecordManage(m ManageRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO manages
		(id, time, ticket, symbol, direction, action, r_multiple, old_sl, new_sl, retcode, ok, dry_run, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Time.UTC(), int64(m.Ticket), m.Symbol, m.Direction, m.Action, m.RMultiple,
		m.OldSL, m.NewSL, m.Retcode, m.OK, m.DryRun, m.Note,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, equity, start_equity, change_pct, dd_pct, trades, verdict)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Time.UTC(), e.Equity, e.StartEquity, e.ChangePct, e.DDPct, e.Trades, e.Verdict,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
