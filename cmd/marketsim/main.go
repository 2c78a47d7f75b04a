package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"marketsim/config"
	"marketsim/internal/adapters/cache"
	"marketsim/internal/adapters/notify"
	"marketsim/internal/adapters/provider"
	"marketsim/internal/ports"
	"marketsim/internal/report"
	"marketsim/internal/sim"
	"marketsim/internal/strategies"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print the trade log as a table")
	csvPath := flag.String("csv", "", "write the trade log to this CSV file")
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

	start, _ := cfg.StartDate()
	end, _ := cfg.EndDate()

	slog.Info("marketsim starting",
		"config", *configPath,
		"start", cfg.Simulation.Start,
		"end", cfg.Simulation.End,
		"market", cfg.Market.Preset,
		"strategies", len(cfg.Strategies),
	)

	barCache, err := cache.NewSQLite(cfg.Cache.DSN)
	if err != nil {
		slog.Error("failed to open cache", "err", err, "dsn", cfg.Cache.DSN)
		os.Exit(1)
	}
	defer barCache.Close()

	barProvider, err := buildProvider(cfg.Provider)
	if err != nil {
		slog.Error("failed to build provider", "err", err)
		os.Exit(1)
	}

	kernel := sim.New(sim.Config{
		Start:        start,
		End:          end,
		Interval:     cfg.Interval(),
		Lookback:     cfg.Lookback(),
		RiskFreeRate: cfg.Simulation.RiskFreeRate,
		Provider:     barProvider,
		Cache:        barCache,
	})

	strategyCfg := sim.StrategyConfig{
		Market:      cfg.MarketConfig(),
		InitialCash: cfg.Simulation.InitialCash,
	}
	for _, entry := range cfg.Strategies {
		s, err := buildStrategy(entry)
		if err != nil {
			slog.Error("failed to build strategy", "err", err)
			os.Exit(1)
		}
		if err := kernel.AddStrategy(s, strategyCfg); err != nil {
			slog.Error("failed to attach strategy", "err", err, "strategy", s.Name())
			os.Exit(1)
		}
	}
	if len(cfg.Strategies) == 0 {
		slog.Error("no strategies configured")
		os.Exit(1)
	}

	// Data loading is the only phase worth interrupting; once running, the
	// simulation is fast and deterministic.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := kernel.Initialize(ctx); err != nil {
		slog.Error("initialization failed", "err", err)
		os.Exit(1)
	}
	if err := kernel.Run(); err != nil {
		slog.Error("simulation failed", "err", err)
		os.Exit(1)
	}

	console := notify.NewConsole(*table)
	results := kernel.Finalize()
	for _, result := range results {
		console.PrintTrades(result.Strategy, result.Trades)
		console.PrintReport(result.Strategy, result.Report)

		decisions := make([]string, 0, len(result.Trades))
		for _, t := range result.Trades {
			decisions = append(decisions, t.Describe())
		}
		if err := console.Notify(ctx, cfg.Notify.Recipient, decisions); err != nil {
			slog.Warn("notifier error", "err", err)
		}

		if *csvPath != "" {
			path := *csvPath
			if len(results) > 1 {
				path = result.Strategy + "-" + path
			}
			if err := report.WriteTradesFile(path, result.Trades); err != nil {
				slog.Error("failed to write trade CSV", "err", err, "path", path)
				os.Exit(1)
			}
			slog.Info("trade log written", "path", path, "trades", len(result.Trades))
		}
	}

	slog.Info("marketsim finished")
}

func buildProvider(cfg config.ProviderConfig) (ports.BarProvider, error) {
	switch cfg.Kind {
	case "cryptocompare":
		return provider.NewCryptoCompare(cfg.BaseURL, cfg.APIKey, cfg.Currency), nil
	case "local":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("provider kind %q requires data_dir", cfg.Kind)
		}
		return provider.NewLocalCSV(cfg.DataDir), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

func buildStrategy(entry config.StrategyEntry) (sim.Strategy, error) {
	if entry.Asset == "" {
		return nil, fmt.Errorf("strategy %q: asset is required", entry.Kind)
	}
	switch entry.Kind {
	case "rsi":
		return strategies.NewRSI(strategies.RSIConfig{
			Asset:        entry.Asset,
			Period:       entry.Period,
			BuyBelow:     entry.BuyBelow,
			SellAbove:    entry.SellAbove,
			CashFraction: entry.CashFraction,
		}), nil
	case "hurst":
		return strategies.NewHurst(strategies.HurstConfig{
			Asset:        entry.Asset,
			Window:       entry.Window,
			MinHurst:     entry.MinHurst,
			TakeProfit:   entry.TakeProfit,
			CashFraction: entry.CashFraction,
		}), nil
	case "buyhold":
		return strategies.NewBuyHold(entry.Asset), nil
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", entry.Kind)
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
