package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rustyeddy/execbot/bot"
	"github.com/rustyeddy/execbot/broker"
	"github.com/rustyeddy/execbot/broker/bridge"
	"github.com/rustyeddy/execbot/broker/sim"
	"github.com/rustyeddy/execbot/config"
	"github.com/rustyeddy/execbot/journal"
	"github.com/rustyeddy/execbot/market"
	"github.com/rustyeddy/execbot/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the decision loop",
	Long: `Run the decision loop until interrupted.

Without --config the built-in defaults apply, still subject to EXECBOT_*
environment overrides. --sim trades against an in-memory terminal with a
synthetic price walk instead of the configured bridge.

Examples:
  execbot run --sim --dryrun --once
  execbot run --config execbot.yaml --metrics-addr :9102`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var runOpts struct {
	configPath  string
	dryRun      bool
	once        bool
	sim         bool
	metricsAddr string
	debug       bool
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVarP(&runOpts.configPath, "config", "f", "", "path to config file (YAML or JSON)")
	f.BoolVar(&runOpts.dryRun, "dryrun", false, "decide and account but never send orders")
	f.BoolVar(&runOpts.once, "once", false, "run a single cycle and exit")
	f.BoolVar(&runOpts.sim, "sim", false, "trade against the in-memory simulator")
	f.StringVar(&runOpts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.BoolVar(&runOpts.debug, "debug", false, "development logging at debug level")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	if runOpts.metricsAddr != "" {
		cfg.Metrics.Addr = runOpts.metricsAddr
	}

	log, err := newLogger(cfg.Log, runOpts.debug)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	term, opts, err := newTerminal(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := term.Close(); err != nil {
			log.Warn("[SHUTDOWN] terminal close", zap.Error(err))
		}
		log.Info("[SHUTDOWN] terminal connection closed")
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	opts = append(opts,
		bot.WithLogger(log),
		bot.WithJournal(j),
		bot.WithMetrics(m),
		bot.WithDryRun(runOpts.dryRun),
	)
	session := bot.NewSession(cfg, term, opts...)
	if err := session.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	log.Info("[INIT] Bot started",
		zap.String("symbol", cfg.Symbol),
		zap.Bool("dryrun", runOpts.dryRun),
		zap.Bool("sim", runOpts.sim),
	)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return m.Serve(gctx, cfg.Metrics.Addr, log)
		})
	}
	g.Go(func() error {
		defer stop()
		return session.Run(gctx, runOpts.once)
	})
	return g.Wait()
}

func loadRunConfig() (*config.Config, error) {
	if runOpts.configPath != "" {
		cfg, err := config.LoadFromFile(runOpts.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}

	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development || debug {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zc.Level = level
	return zc.Build()
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "sqlite":
		j, err := journal.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return j, nil
	default:
		return journal.Discard{}, nil
	}
}

// newTerminal returns the simulator or the bridge client, plus any session
// options the terminal needs.
func newTerminal(cfg *config.Config, log *zap.Logger) (broker.Terminal, []bot.Option, error) {
	if !runOpts.sim {
		return bridge.NewClient(bridge.Config{
			BaseURL:   cfg.Bridge.URL,
			StreamURL: cfg.Bridge.StreamURL,
			Token:     cfg.Bridge.Token,
			RateLimit: cfg.Bridge.RateLimit,
			Burst:     cfg.Bridge.Burst,
			Timeout:   parseDuration(cfg.Bridge.Timeout),
			StaleTick: parseDuration(cfg.Bridge.StaleTick),
		}, log.Named("bridge")), nil, nil
	}

	spec, ok := market.Symbols[cfg.Symbol]
	if !ok {
		return nil, nil, fmt.Errorf("sim: no built-in spec for %s", cfg.Symbol)
	}
	engine := sim.NewEngine(cfg.Sim.Balance, log.Named("sim"), spec)
	err := engine.Seed(cfg.Symbol, cfg.Bars, time.Now(), sim.Walk{
		Start:        cfg.Sim.Start,
		Volatility:   cfg.Sim.Volatility,
		Drift:        cfg.Sim.Drift,
		SpreadPoints: cfg.Sim.SpreadPoints,
		Timeframe:    market.Timeframe(cfg.Timeframe),
		Seed:         cfg.Sim.Seed,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sim: %w", err)
	}

	advance := func(context.Context) error {
		_, err := engine.Advance(cfg.Symbol)
		return err
	}
	return engine, []bot.Option{bot.WithBeforeStep(advance)}, nil
}

// parseDuration reads an already validated duration.
func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
