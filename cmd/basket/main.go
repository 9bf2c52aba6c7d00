package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polybasket/config"
	"github.com/alejandrodnm/polybasket/internal/adapters/notify"
	"github.com/alejandrodnm/polybasket/internal/adapters/polymarket"
	"github.com/alejandrodnm/polybasket/internal/adapters/storage"
	"github.com/alejandrodnm/polybasket/internal/backtest"
	"github.com/alejandrodnm/polybasket/internal/pipeline"
	"github.com/alejandrodnm/polybasket/internal/scoring"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	seed := flag.Bool("seed-wallets", false, "discover top markets and seed the wallet basket")
	pull := flag.Bool("pull-trades", false, "download trade history for every seed wallet")
	score := flag.Bool("score-wallets", false, "score every wallet with cached history")
	run := flag.Bool("run-backtest", false, "replay the basket consensus over every threshold")
	full := flag.Bool("full-pipeline", false, "run seed, pull, score and backtest in order")
	refresh := flag.Bool("refresh", false, "re-download wallets that already have cached history")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	showSignals := flag.Bool("signals", false, "print emitted signals per threshold")
	asOf := flag.Int64("as-of", 0, "evaluation instant in unix seconds (default: now)")
	flag.Parse()

	if !*seed && !*pull && !*score && !*run && !*full {
		fmt.Fprintln(os.Stderr, "no stage selected")
		flag.Usage()
		os.Exit(2)
	}

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

	slog.Info("polybasket starting",
		"config", *configPath,
		"dsn", cfg.Storage.DSN,
		"full", *full,
		"refresh", *refresh,
		"as_of", *asOf,
	)

	client := polymarket.NewClient(cfg.API.GammaBase, cfg.API.DataBase,
		polymarket.WithRetry(*cfg.API.MaxRetries, 0),
		polymarket.WithTimeout(cfg.API.Timeout()),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	scorer := scoring.NewScorer(scoringParams(cfg.Scoring), scoringWeights(cfg.Scoring))
	if sum := scorer.Weights().Sum(); sum < 0.99 || sum > 1.01 {
		slog.Warn("scoring weights do not sum to 1", "sum", sum)
	}

	p := pipeline.New(
		pipelineConfig(cfg, *refresh, *showSignals, *asOf),
		client, client, client,
		store,
		notify.NewConsole(),
		scorer,
		backtestParams(cfg.Backtest),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := runStages(ctx, p, *full, *seed, *pull, *score, *run); err != nil {
		slog.Error("pipeline exited with error", "err", err)
		store.Close()
		os.Exit(1)
	}

	slog.Info("polybasket stopped cleanly")
}

// runStages ejecuta las etapas pedidas en orden de dependencia.
func runStages(ctx context.Context, p *pipeline.Pipeline, full, seed, pull, score, run bool) error {
	if full {
		return p.Run(ctx)
	}
	if seed {
		if _, err := p.SeedWallets(ctx); err != nil {
			return err
		}
	}
	if pull {
		if _, err := p.PullTrades(ctx); err != nil {
			return err
		}
	}
	if score {
		if _, err := p.ScoreWallets(ctx); err != nil {
			return err
		}
	}
	if run {
		if _, err := p.RunBacktest(ctx); err != nil {
			return err
		}
	}
	return nil
}

func pipelineConfig(cfg *config.Config, refresh, showSignals bool, asOf int64) pipeline.Config {
	return pipeline.Config{
		Markets:            cfg.Discovery.Markets,
		ClosedMinVolume:    cfg.Discovery.ClosedMinVolume,
		ActiveMinVolume:    cfg.Discovery.ActiveMinVolume,
		HoldersPerMarket:   cfg.Discovery.HoldersPerMarket,
		MaxWallets:         cfg.Discovery.MaxWallets,
		Lookback:           cfg.Ingest.Lookback(),
		MaxTrades:          cfg.Ingest.MaxTrades,
		PullWorkers:        cfg.Ingest.Workers,
		Refresh:            refresh,
		ScoreWorkers:       cfg.Scoring.Workers,
		TopN:               cfg.Scoring.TopN,
		Thresholds:         cfg.Backtest.Thresholds,
		MinVerifiedForBest: cfg.Backtest.MinVerifiedForBest,
		ShowSignals:        showSignals,
		AsOf:               asOf,
	}
}

// scoringParams traslada los caps del YAML. Los ceros toman el valor de referencia.
func scoringParams(c config.ScoringConfig) scoring.Params {
	return scoring.Params{
		MinTrades:          c.MinTrades,
		ExperienceMarkets:  c.ExperienceMarkets,
		VolumeSaturation:   c.VolumeSaturation,
		ROISpanPct:         c.ROISpanPct,
		ConsistencyPenalty: c.ConsistencyPenalty,
		TimingScale:        c.TimingScale,
		SpecializationCap:  c.SpecializationCap,
		RiskPenalty:        c.RiskPenalty,
		BotScale:           c.BotScale,
		RecencyWindow:      c.RecencyWindow(),
		RecencyTarget:      c.RecencyTarget,
		CapacityScale:      c.CapacityScale,
		CapacityMinSizes:   c.CapacityMinSizes,
		CapacityMinPairs:   c.CapacityMinPairs,
	}
}

func scoringWeights(c config.ScoringConfig) scoring.Weights {
	if len(c.Weights) == 0 {
		return nil
	}
	w := make(scoring.Weights, len(c.Weights))
	for name, v := range c.Weights {
		w[name] = v
	}
	return w
}

func backtestParams(c config.BacktestConfig) backtest.Params {
	return backtest.Params{
		MinQuorum:       c.MinQuorum,
		HalfLifeHours:   c.HalfLifeHours,
		ReputationFloor: *c.ReputationFloor,
		ConvictionCap:   c.ConvictionCap,
		WindowHalfLives: c.WindowHalfLives,
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
