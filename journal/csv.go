package journal

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var (
	entryHeader  = []string{"id", "time", "symbol", "direction", "regime", "size_factor", "volume", "price", "sl", "tp", "risk_dollars", "retcode", "ticket", "dry_run", "comment"}
	manageHeader = []string{"id", "time", "ticket", "symbol", "direction", "action", "r_multiple", "old_sl", "new_sl", "retcode", "ok", "dry_run", "note"}
	equityHeader = []string{"time", "equity", "start_equity", "change_pct", "dd_pct", "trades", "verdict"}
)

// CSV appends journal rows to entries.csv, manages.csv and equity.csv in a
// directory. Headers are written only to new files.
type CSV struct {
	entries, manages, equity *csv.Writer
	files                    []*os.File
}

func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	j := &CSV{}
	open := func(name string, header []string) (*csv.Writer, error) {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, f)

		w := csv.NewWriter(f)
		st, err := f.Stat()
		if err != nil {
			return nil, err
		}
		if st.Size() == 0 {
			if err := w.Write(header); err != nil {
				return nil, err
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return nil, err
			}
		}
		return w, nil
	}

	var err error
	if j.entries, err = open("entries.csv", entryHeader); err != nil {
		return nil, errors.Join(err, j.closeFiles())
	}
	if j.manages, err = open("manages.csv", manageHeader); err != nil {
		return nil, errors.Join(err, j.closeFiles())
	}
	if j.equity, err = open("equity.csv", equityHeader); err != nil {
		return nil, errors.Join(err, j.closeFiles())
	}
	return j, nil
}

func (j *CSV) RecordEntry(e EntryRecord) error {
	return writeRow(j.entries, []string{
		e.ID,
		e.Time.UTC().Format(time.RFC3339),
		e.Symbol,
		e.Direction,
		e.Regime,
		f(e.SizeFactor),
		f(e.Volume),
		f(e.Price),
		f(e.StopLoss),
		f(e.TakeProfit),
		f(e.RiskDollars),
		strconv.Itoa(e.Retcode),
		strconv.FormatUint(e.Ticket, 10),
		strconv.FormatBool(e.DryRun),
		e.Comment,
	})
}

func (j *CSV) RecordManage(m ManageRecord) error {
	return writeRow(j.manages, []string{
		m.ID,
		m.Time.UTC().Format(time.RFC3339),
		strconv.FormatUint(m.Ticket, 10),
		m.Symbol,
		m.Direction,
		m.Action,
		f(m.RMultiple),
		f(m.OldSL),
		f(m.NewSL),
		strconv.Itoa(m.Retcode),
		strconv.FormatBool(m.OK),
		strconv.FormatBool(m.DryRun),
		m.Note,
	})
}

func (j *CSV) RecordEquity(e EquitySnapshot) error {
	return writeRow(j.equity, []string{
		e.Time.UTC().Format(time.RFC3339),
		f(e.Equity),
		f(e.StartEquity),
		f(e.ChangePct),
		f(e.DDPct),
		strconv.Itoa(e.Trades),
		e.Verdict,
	})
}

func (j *CSV) Close() error {
	var errs []error
	for _, w := range []*csv.Writer{j.entries, j.manages, j.equity} {
		w.Flush()
		errs = append(errs, w.Error())
	}
	errs = append(errs, j.closeFiles())
	return errors.Join(errs...)
}

func (j *CSV) closeFiles() error {
	var errs []error
	for _, fh := range j.files {
		errs = append(errs, fh.Close())
	}
	j.files = nil
	return errors.Join(errs...)
}

func writeRow(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
