package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/polybasket/internal/domain"
	"golang.org/x/sync/errgroup"
)

// PullStats resume una ejecución de PullTrades.
type PullStats struct {
	Fetched int // wallets descargadas en este run
	Cached  int // wallets omitidas por tener historial
	Failed  int // wallets cuyo fetch falló (se omiten, no aborta)
	Trades  int // trades descargados
}

// PullTrades descarga el historial de cada wallet semilla y lo cachea.
// Un fallo de una wallet se registra y se omite.
func (p *Pipeline) PullTrades(ctx context.Context) (PullStats, error) {
	wallets, err := p.storage.GetWallets(ctx)
	if err != nil {
		return PullStats{}, fmt.Errorf("pipeline.PullTrades: %w", err)
	}
	if len(wallets) == 0 {
		return PullStats{}, fmt.Errorf("pipeline.PullTrades: no seed wallets: %w", ErrMissingStage)
	}

	since := p.asOf() - int64(p.cfg.Lookback.Seconds())
	if p.cfg.Lookback <= 0 {
		since = 0
	}

	workers := p.cfg.PullWorkers
	if workers <= 0 {
		workers = 1
	}

	var stats PullStats
	pending := make([]domain.Wallet, 0, len(wallets))
	for _, w := range wallets {
		if !p.cfg.Refresh {
			cached, err := p.storage.HasRawTrades(ctx, w.Address)
			if err != nil {
				return stats, fmt.Errorf("pipeline.PullTrades: %w", err)
			}
			if cached {
				stats.Cached++
				continue
			}
		}
		pending = append(pending, w)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, w := range pending {
		g.Go(func() error {
			trades, err := p.activity.FetchWalletActivity(gctx, w.Address, since, p.cfg.MaxTrades)
			if err == nil {
				err = p.storage.SaveRawTrades(gctx, w.Address, trades)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				stats.Failed++
				slog.Warn("wallet pull failed, skipping", "wallet", w.Address, "err", err)
				return nil
			}
			stats.Fetched++
			stats.Trades += len(trades)
			slog.Debug("wallet pulled",
				"wallet", fmt.Sprintf("%d/%d", i+1, len(pending)),
				"address", w.Address,
				"trades", len(trades),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("pipeline.PullTrades: %w", err)
	}

	slog.Info("pull trades complete",
		"wallets", len(wallets),
		"fetched", stats.Fetched,
		"cached", stats.Cached,
		"failed", stats.Failed,
		"trades", stats.Trades,
	)
	return stats, nil
}
