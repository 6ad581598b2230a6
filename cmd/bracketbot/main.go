package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/bracketbot/config"
	"github.com/alejandrodnm/bracketbot/internal/adapters/notify"
	"github.com/alejandrodnm/bracketbot/internal/adapters/polymarket"
	"github.com/alejandrodnm/bracketbot/internal/adapters/storage"
	"github.com/alejandrodnm/bracketbot/internal/engine"
	"github.com/alejandrodnm/bracketbot/internal/scanner"
	"github.com/alejandrodnm/bracketbot/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	strategyID := flag.String("strategy", "all", "strategy id to run, or 'all'")
	once := flag.Bool("once", false, "run one cycle per strategy and exit")
	report := flag.Bool("report", false, "print portfolio report and exit")
	reset := flag.Bool("reset", false, "wipe strategy state and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	full := flag.Bool("full", false, "print buys per cycle and the full equity log in reports")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	strategies, ok := selectStrategies(*strategyID)
	if !ok {
		slog.Error("unknown strategy", "strategy", *strategyID, "known", strategy.IDs())
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engCfg := engineConfig(cfg)
	client := polymarket.NewClient(cfg.API.GammaBase, cfg.API.CLOBBase, cfg.API.XTrackerBase)
	deps := engine.Deps{
		Markets:     client,
		Books:       client,
		Resolutions: client,
		Signals:     client,
		Store:       store,
		Audit:       store,
	}

	engines := make([]*engine.Engine, 0, len(strategies))
	for _, st := range strategies {
		engines = append(engines, engine.New(ctx, engCfg, st, deps))
	}

	notifier := notify.NewConsole(*full)

	switch {
	case *report:
		runReport(notifier, engines)
		return
	case *reset:
		runReset(ctx, engines)
		return
	}

	slog.Info("bracketbot starting",
		"config", *configPath,
		"strategies", len(engines),
		"interval", cfg.ScanInterval(),
		"once", *once,
	)

	runner := engine.NewRunner(engines, cfg.ScanInterval())
	if *once {
		runner.RunOnce(ctx, notifier.PrintCycleStatus)
		runReport(notifier, engines)
		return
	}

	if err := runner.Run(ctx, notifier.PrintCycleStatus); err != nil {
		slog.Error("trading loop exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("bracketbot stopped cleanly")
}

// selectStrategies resuelve el flag -strategy al catálogo.
func selectStrategies(id string) ([]strategy.Strategy, bool) {
	if id == "all" || id == "" {
		return strategy.All(), true
	}
	st, ok := strategy.ByID(id)
	if !ok {
		return nil, false
	}
	return []strategy.Strategy{st}, true
}

// engineConfig traduce la config YAML a la del engine.
func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		StartingCapital:  cfg.Engine.StartingCapital,
		BetFraction:      cfg.Engine.BetFraction,
		MaxSetCost:       cfg.Engine.MaxSetCost,
		TakeProfitBid:    cfg.Engine.TakeProfitBid,
		MaxDepthFraction: cfg.Engine.MaxDepthFraction,
		Scanner: scanner.Params{
			QualifyMin:  cfg.Engine.QualifyMinAsk,
			QualifyMax:  cfg.Engine.QualifyMaxAsk,
			MaxSetCost:  cfg.Engine.MaxSetCost,
			MinVolume:   cfg.Engine.MinVolumeUSD,
			MinDepth:    cfg.Engine.MinDepthUSD,
			RequireBoth: cfg.Engine.RequireBothFilters,
		},
		ScanInterval: cfg.ScanInterval(),
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
