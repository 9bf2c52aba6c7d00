// Package pipeline orquesta las cuatro etapas del backtester: semilla de
// wallets, descarga de historiales, scoring y backtest. Cada etapa persiste su
// salida en ports.Storage y la siguiente la lee de ahí.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polybasket/internal/backtest"
	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/alejandrodnm/polybasket/internal/ports"
	"github.com/alejandrodnm/polybasket/internal/scoring"
)

// ErrMissingStage indica que falta la salida de una etapa anterior.
var ErrMissingStage = errors.New("pipeline: previous stage has no output")

// Config contiene la configuración de todas las etapas.
type Config struct {
	// Semilla
	Markets          int
	ClosedMinVolume  float64
	ActiveMinVolume  float64
	HoldersPerMarket int
	MaxWallets       int

	// Descarga
	Lookback    time.Duration
	MaxTrades   int
	PullWorkers int
	Refresh     bool // re-descarga wallets con historial cacheado

	// Scoring
	ScoreWorkers int // 0 = NumCPU × 2
	TopN         int

	// Backtest
	Thresholds         []float64
	MinVerifiedForBest int
	ShowSignals        bool

	// AsOf fija el instante de evaluación (unix seconds). 0 = inicio del run.
	AsOf int64
}

// Pipeline tiene todas las dependencias inyectadas desde cmd/.
type Pipeline struct {
	cfg      Config
	markets  ports.MarketProvider
	holders  ports.HolderProvider
	activity ports.ActivityProvider
	storage  ports.Storage
	notifier ports.Notifier
	scorer   *scoring.Scorer
	params   backtest.Params
	now      func() time.Time
}

// New crea un Pipeline.
func New(
	cfg Config,
	markets ports.MarketProvider,
	holders ports.HolderProvider,
	activity ports.ActivityProvider,
	storage ports.Storage,
	notifier ports.Notifier,
	scorer *scoring.Scorer,
	params backtest.Params,
) *Pipeline {
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = backtest.DefaultThresholds()
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	return &Pipeline{
		cfg:      cfg,
		markets:  markets,
		holders:  holders,
		activity: activity,
		storage:  storage,
		notifier: notifier,
		scorer:   scorer,
		params:   params,
		now:      time.Now,
	}
}

// Run ejecuta las cuatro etapas en orden. Se detiene en el primer error.
func (p *Pipeline) Run(ctx context.Context) error {
	if _, err := p.SeedWallets(ctx); err != nil {
		return err
	}
	if _, err := p.PullTrades(ctx); err != nil {
		return err
	}
	if _, err := p.ScoreWallets(ctx); err != nil {
		return err
	}
	if _, err := p.RunBacktest(ctx); err != nil {
		return err
	}
	return nil
}

// asOf devuelve el instante de evaluación de este run.
func (p *Pipeline) asOf() int64 {
	if p.cfg.AsOf > 0 {
		return p.cfg.AsOf
	}
	return p.now().Unix()
}

// loadProfiles carga las wallets y sus trades normalizados. Las wallets sin
// historial cacheado se omiten; los registros inválidos se cuentan y descartan.
func (p *Pipeline) loadProfiles(ctx context.Context) ([]domain.WalletProfile, error) {
	wallets, err := p.storage.GetWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline.loadProfiles: %w", err)
	}
	if len(wallets) == 0 {
		return nil, fmt.Errorf("pipeline.loadProfiles: no seed wallets: %w", ErrMissingStage)
	}

	profiles := make([]domain.WalletProfile, 0, len(wallets))
	missing, dropped := 0, 0
	for _, w := range wallets {
		raws, err := p.storage.GetRawTrades(ctx, w.Address)
		if errors.Is(err, domain.ErrNotFound) {
			missing++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("pipeline.loadProfiles: %w", err)
		}

		trades, n := domain.NormalizeAll(w.Address, raws)
		dropped += n
		profiles = append(profiles, domain.WalletProfile{
			WalletID:    w.Address,
			DisplayName: w.Pseudonym,
			Trades:      trades,
		})
	}

	slog.Debug("profiles loaded",
		"wallets", len(wallets),
		"profiles", len(profiles),
		"without_history", missing,
		"invalid_records", dropped,
	)
	if dropped > 0 {
		slog.Warn("invalid trade records dropped", "count", dropped)
	}
	return profiles, nil
}
