// Package metrics exposes the decision cycle as Prometheus series. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "execbot"

var regimes = []string{"TREND_LONG", "TREND_SHORT", "UNSURE"}

type Metrics struct {
	gatherer prometheus.Gatherer

	cycles        prometheus.Counter
	cycleErrors   prometheus.Counter
	cycleDuration prometheus.Histogram
	gateBlocks    *prometheus.CounterVec
	entries       *prometheus.CounterVec
	manageActions *prometheus.CounterVec
	rollovers     prometheus.Counter

	equity      prometheus.Gauge
	changePct   prometheus.Gauge
	ddPct       prometheus.Gauge
	tradesToday prometheus.Gauge
	spread      prometheus.Gauge
	spreadCap   prometheus.Gauge
	atr         prometheus.Gauge
	adx         prometheus.Gauge
	regime      *prometheus.GaugeVec
}

// New registers the bot's series on reg. Pass prometheus.NewRegistry() in
// tests; each registry accepts one Metrics.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,

		cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Decision cycles started",
		}),
		cycleErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_errors_total",
			Help:      "Decision cycles aborted by infrastructure errors",
		}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one decision cycle",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		gateBlocks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_blocks_total",
			Help:      "Cycles in which a gate fired, by gate code",
		}, []string{"code"}),
		entries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Entry attempts by direction and outcome",
		}, []string{"direction", "result"}),
		manageActions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manage_actions_total",
			Help:      "Open-trade management actions by outcome",
		}, []string{"action", "result"}),
		rollovers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_rollovers_total",
			Help:      "Daily counter resets",
		}),

		equity: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "equity",
			Help:      "Last observed account equity",
		}),
		changePct: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_change_pct",
			Help:      "Equity change since start of day, percent",
		}),
		ddPct: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_drawdown_pct",
			Help:      "Deepest intraday equity drawdown, percent (<= 0)",
		}),
		tradesToday: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trades_today",
			Help:      "Entries counted against today's limit",
		}),
		spread: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spread_points",
			Help:      "Current spread in points",
		}),
		spreadCap: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spread_cap_points",
			Help:      "Current dynamic spread cap in points",
		}),
		atr: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "atr",
			Help:      "Latest ATR, zero when unavailable",
		}),
		adx: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "adx",
			Help:      "Latest ADX, zero when unavailable",
		}),
		regime: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regime",
			Help:      "1 for the current regime, 0 otherwise",
		}, []string{"regime"}),
	}
}

// CycleStarted counts a cycle and returns a func that records its duration
// and whether it failed.
func (m *Metrics) CycleStarted() func(err error) {
	if m == nil {
		return func(error) {}
	}
	m.cycles.Inc()
	start := time.Now()
	return func(err error) {
		m.cycleDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			m.cycleErrors.Inc()
		}
	}
}

// Market records the spread gate inputs and indicator readings.
func (m *Metrics) Market(spread, spreadCap, atr, adx float64, regime string) {
	if m == nil {
		return
	}
	m.spread.Set(spread)
	m.spreadCap.Set(spreadCap)
	m.atr.Set(atr)
	m.adx.Set(adx)
	for _, r := range regimes {
		v := 0.0
		if r == regime {
			v = 1
		}
		m.regime.WithLabelValues(r).Set(v)
	}
}

func (m *Metrics) Daily(equity, changePct, ddPct float64, trades int) {
	if m == nil {
		return
	}
	m.equity.Set(equity)
	m.changePct.Set(changePct)
	m.ddPct.Set(ddPct)
	m.tradesToday.Set(float64(trades))
}

func (m *Metrics) Rollover() {
	if m == nil {
		return
	}
	m.rollovers.Inc()
}

func (m *Metrics) GateBlocked(code string) {
	if m == nil {
		return
	}
	m.gateBlocks.WithLabelValues(code).Inc()
}

// Entry outcomes are "filled", "dryrun", "rejected" or "error".
func (m *Metrics) Entry(direction, result string) {
	if m == nil {
		return
	}
	m.entries.WithLabelValues(direction, result).Inc()
}

func (m *Metrics) Manage(action, result string) {
	if m == nil {
		return
	}
	m.manageActions.WithLabelValues(action, result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("[METRICS] listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
