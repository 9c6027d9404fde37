package journal

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// FormatEntryOrg renders an EntryRecord as an Org-mode block. Structured
// facts go in a PROPERTIES drawer; Thesis and Review are left for notes.
func FormatEntryOrg(e EntryRecord) string {
	heading := fmt.Sprintf("** Entry: %s %s (%s)", e.Symbol, e.Direction, shortID(e.ID))
	if e.DryRun {
		heading += " :dryrun:"
	}

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":ID: %s\n", e.ID))
	b.WriteString(fmt.Sprintf(":TIME: %s\n", e.Time.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":REGIME: %s\n", e.Regime))
	b.WriteString(fmt.Sprintf(":SIZE_FACTOR: %.1f\n", e.SizeFactor))
	b.WriteString(fmt.Sprintf(":VOLUME: %.2f\n", e.Volume))
	b.WriteString(fmt.Sprintf(":PRICE: %.5f\n", e.Price))
	b.WriteString(fmt.Sprintf(":SL: %.5f\n", e.StopLoss))
	b.WriteString(fmt.Sprintf(":TP: %.5f\n", e.TakeProfit))
	b.WriteString(fmt.Sprintf(":RISK: %.2f\n", e.RiskDollars))
	b.WriteString(fmt.Sprintf(":RETCODE: %d\n", e.Retcode))
	b.WriteString(fmt.Sprintf(":TICKET: %d\n", e.Ticket))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}

// DayReport summarizes one trading day of journal rows.
type DayReport struct {
	Day     time.Time
	Entries []EntryRecord
	Manages []ManageRecord

	StartEquity float64
	EndEquity   float64
	ChangePct   float64
	MaxDDPct    float64
	Trades      int
	Verdict     string
	Snapshots   int
}

func NewDayReport(day time.Time, entries []EntryRecord, manages []ManageRecord, equity []EquitySnapshot) DayReport {
	r := DayReport{
		Day:       day,
		Entries:   entries,
		Manages:   manages,
		Snapshots: len(equity),
		Verdict:   "NONE",
	}
	if len(equity) == 0 {
		return r
	}

	first, last := equity[0], equity[len(equity)-1]
	r.StartEquity = first.StartEquity
	r.EndEquity = last.Equity
	r.ChangePct = last.ChangePct
	r.Trades = last.Trades
	r.Verdict = last.Verdict
	for _, s := range equity {
		r.MaxDDPct = min(r.MaxDDPct, s.DDPct)
	}
	return r
}

var dayOrgFuncs = template.FuncMap{
	"entry": FormatEntryOrg,
	"hhmm":  func(t time.Time) string { return t.UTC().Format("15:04:05") },
}

const DayOrgTemplate = `* DAY: {{.Day.Format "2006-01-02 Mon"}}
:PROPERTIES:
:START_EQUITY: {{printf "%.2f" .StartEquity}}
:END_EQUITY:   {{printf "%.2f" .EndEquity}}
:CHANGE_PCT:   {{printf "%.2f" .ChangePct}}
:MAX_DD_PCT:   {{printf "%.2f" .MaxDDPct}}
:TRADES:       {{.Trades}}
:VERDICT:      {{.Verdict}}
:CYCLES:       {{.Snapshots}}
:END:
{{- if .Entries }}

{{ range $i, $e := .Entries }}{{ if $i }}
{{ end }}{{ entry $e }}{{ end }}
{{- end }}
{{- if .Manages }}

** Management
| Time | Ticket | Dir | Action | R | Old SL | New SL | Result |
|------+--------+-----+--------+---+--------+--------+--------|
{{- range .Manages }}
| {{hhmm .Time}} | {{.Ticket}} | {{.Direction}} | {{.Action}} | {{printf "%.2f" .RMultiple}} | {{printf "%.5f" .OldSL}} | {{printf "%.5f" .NewSL}} | {{if .DryRun}}dryrun{{else if .OK}}ok{{else}}failed {{.Retcode}}{{end}} |
{{- end }}
{{- end }}
`

var dayOrg = template.Must(template.New("day").Funcs(dayOrgFuncs).Parse(DayOrgTemplate))

// FormatDayOrg renders a DayReport as an Org-mode heading with entries and
// a management table.
func FormatDayOrg(r DayReport) (string, error) {
	var buf bytes.Buffer
	if err := dayOrg.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}
