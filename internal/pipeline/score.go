package pipeline

// score.go: worker pool para puntuar wallets en paralelo. El scorer es puro y
// los perfiles son de solo lectura, así que los workers no comparten estado.

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/alejandrodnm/polybasket/internal/scoring"
)

// ScoreWallets puntúa las wallets con historial, persiste los scores y muestra
// el top y la distribución. Las wallets sin datos suficientes no tienen score.
func (p *Pipeline) ScoreWallets(ctx context.Context) (map[string]domain.WalletScore, error) {
	profiles, err := p.loadProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline.ScoreWallets: %w", err)
	}

	scores := scoreConcurrent(ctx, p.scorer, profiles, p.asOf(), p.cfg.ScoreWorkers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := rankScores(scores)
	if err := p.storage.SaveScores(ctx, ranked); err != nil {
		return nil, fmt.Errorf("pipeline.ScoreWallets: %w", err)
	}

	top := ranked[:min(p.cfg.TopN, len(ranked))]
	if err := p.notifier.NotifyScores(ctx, top, domain.Distribution(ranked)); err != nil {
		slog.Warn("notify scores failed", "err", err)
	}

	slog.Info("scoring complete",
		"profiles", len(profiles),
		"scored", len(scores),
		"insufficient_data", len(profiles)-len(scores),
	)
	return scores, nil
}

// scoreConcurrent puntúa todos los perfiles usando un worker pool.
// Si workers <= 0 usa runtime.NumCPU() × 2.
func scoreConcurrent(
	ctx context.Context,
	scorer *scoring.Scorer,
	profiles []domain.WalletProfile,
	asOf int64,
	workers int,
) map[string]domain.WalletScore {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	workCh := make(chan domain.WalletProfile, len(profiles))
	resultCh := make(chan domain.WalletScore, len(profiles))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for profile := range workCh {
				if ctx.Err() != nil {
					continue
				}
				score, ok := scorer.Score(profile, asOf)
				if !ok {
					slog.Debug("insufficient data", "wallet", profile.WalletID, "trades", len(profile.Trades))
					continue
				}
				resultCh <- score
			}
		}()
	}

	for _, profile := range profiles {
		workCh <- profile
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	scores := make(map[string]domain.WalletScore, len(profiles))
	for s := range resultCh {
		scores[s.WalletID] = s
	}

	slog.Debug("concurrent scoring complete",
		"profiles", len(profiles),
		"scores", len(scores),
		"workers", workers,
	)
	return scores
}

// rankScores ordena por composite desc; en empate, por wallet.
func rankScores(scores map[string]domain.WalletScore) []domain.WalletScore {
	ranked := make([]domain.WalletScore, 0, len(scores))
	for _, s := range scores {
		ranked = append(ranked, s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].CompositeScore != ranked[j].CompositeScore {
			return ranked[i].CompositeScore > ranked[j].CompositeScore
		}
		return ranked[i].WalletID < ranked[j].WalletID
	})
	return ranked
}
