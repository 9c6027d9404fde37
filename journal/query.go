package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("journal: record not found")

const entryCols = `id, time, symbol, direction, regime, size_factor, volume, price, sl, tp, risk_dollars, retcode, ticket, dry_run, comment`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (EntryRecord, error) {
	var rec EntryRecord
	var ticket int64
	err := s.Scan(
		&rec.ID,
		&rec.Time,
		&rec.Symbol,
		&rec.Direction,
		&rec.Regime,
		&rec.SizeFactor,
		&rec.Volume,
		&rec.Price,
		&rec.StopLoss,
		&rec.TakeProfit,
		&rec.RiskDollars,
		&rec.Retcode,
		&ticket,
		&rec.DryRun,
		&rec.Comment,
	)
	rec.Ticket = uint64(ticket)
	return rec, err
}

// GetEntry returns a single entry record by ID.
func (j *SQLite) GetEntry(id string) (EntryRecord, error) {
	row := j.db.QueryRow(`SELECT `+entryCols+` FROM entries WHERE id = ?`, id)
	rec, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EntryRecord{}, fmt.Errorf("entry %q: %w", id, ErrNotFound)
		}
		return EntryRecord{}, err
	}
	return rec, nil
}

// ListEntriesBetween returns entries with time within [start, end).
func (j *SQLite) ListEntriesBetween(start, end time.Time) ([]EntryRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+entryCols+`
		FROM entries
		WHERE time >= ? AND time < ?
		ORDER BY time ASC, id ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntryRecord
	for rows.Next() {
		rec, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListManagesBetween returns management actions with time within [start, end).
func (j *SQLite) ListManagesBetween(start, end time.Time) ([]ManageRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, time, ticket, symbol, direction, action, r_multiple, old_sl, new_sl, retcode, ok, dry_run, note
		FROM manages
		WHERE time >= ? AND time < ?
		ORDER BY time ASC, id ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ManageRecord
	for rows.Next() {
		var rec ManageRecord
		var ticket int64
		if err := rows.Scan(
			&rec.ID,
			&rec.Time,
			&ticket,
			&rec.Symbol,
			&rec.Direction,
			&rec.Action,
			&rec.RMultiple,
			&rec.OldSL,
			&rec.NewSL,
			&rec.Retcode,
			&rec.OK,
			&rec.DryRun,
			&rec.Note,
		); err != nil {
			return nil, err
		}
		rec.Ticket = uint64(ticket)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityBetween returns equity snapshots with time within [start, end).
func (j *SQLite) ListEquityBetween(start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, equity, start_equity, change_pct, dd_pct, trades, verdict
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var s EquitySnapshot
		if err := rows.Scan(
			&s.Time,
			&s.Equity,
			&s.StartEquity,
			&s.ChangePct,
			&s.DDPct,
			&s.Trades,
			&s.Verdict,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Day loads everything journaled on the calendar day containing day, in
// day's location.
func (j *SQLite) Day(day time.Time) (DayReport, error) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	entries, err := j.ListEntriesBetween(start, end)
	if err != nil {
		return DayReport{}, fmt.Errorf("entries: %w", err)
	}
	manages, err := j.ListManagesBetween(start, end)
	if err != nil {
		return DayReport{}, fmt.Errorf("manages: %w", err)
	}
	equity, err := j.ListEquityBetween(start, end)
	if err != nil {
		return DayReport{}, fmt.Errorf("equity: %w", err)
	}
	return NewDayReport(start, entries, manages, equity), nil
}
