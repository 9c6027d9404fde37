package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsRecord(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.CycleStarted()(nil)
	m.CycleStarted()(errors.New("gateway down"))
	m.Market(210, 190, 1.5, 27, "TREND_LONG")
	m.Daily(10_250, 2.5, -0.75, 3)
	m.Rollover()
	m.GateBlocked("SPREAD_TOO_WIDE")
	m.GateBlocked("SPREAD_TOO_WIDE")
	m.Entry("LONG", "dryrun")
	m.Manage("TRAIL", "ok")

	out := scrape(t, m)
	for _, want := range []string{
		"execbot_cycles_total 2",
		"execbot_cycle_errors_total 1",
		"execbot_cycle_duration_seconds_count 2",
		"execbot_spread_points 210",
		"execbot_spread_cap_points 190",
		`execbot_regime{regime="TREND_LONG"} 1`,
		`execbot_regime{regime="UNSURE"} 0`,
		"execbot_equity 10250",
		"execbot_daily_drawdown_pct -0.75",
		"execbot_trades_today 3",
		"execbot_daily_rollovers_total 1",
		`execbot_gate_blocks_total{code="SPREAD_TOO_WIDE"} 2`,
		`execbot_entries_total{direction="LONG",result="dryrun"} 1`,
		`execbot_manage_actions_total{action="TRAIL",result="ok"} 1`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.CycleStarted()(nil)
		m.Market(1, 2, 3, 4, "UNSURE")
		m.Daily(1, 2, 3, 4)
		m.Rollover()
		m.GateBlocked("X")
		m.Entry("LONG", "filled")
		m.Manage("HOLD", "ok")
	})
}
