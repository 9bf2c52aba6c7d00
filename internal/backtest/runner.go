package backtest

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/polybasket/internal/domain"
	"golang.org/x/sync/errgroup"
)

// RunThresholds ejecuta un run independiente por umbral, en paralelo.
// Cada run tiene su propio estado de ventanas; los resultados se devuelven en
// el mismo orden que thresholds.
func RunThresholds(ctx context.Context, sim *Simulator, timeline Timeline, thresholds []float64) ([]domain.ThresholdResult, error) {
	if timeline.Len() == 0 {
		return nil, ErrEmptyTimeline
	}

	results := make([]domain.ThresholdResult, len(thresholds))
	g, ctx := errgroup.WithContext(ctx)
	for i, th := range thresholds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := sim.Run(timeline, th)
			if err != nil {
				return fmt.Errorf("backtest.RunThresholds: threshold %.2f: %w", th, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// BestThreshold devuelve el umbral con mayor precisión entre los que tienen más
// de minVerified señales verificadas. nil si ninguno califica.
func BestThreshold(results []domain.ThresholdResult, minVerified int) *domain.ThresholdResult {
	var best *domain.ThresholdResult
	for i := range results {
		r := &results[i]
		if r.VerifiedSignals <= minVerified {
			continue
		}
		if best == nil || r.Accuracy > best.Accuracy {
			best = r
		}
	}
	return best
}

// EligibleCount cuenta las wallets por encima del umbral de reputación.
func EligibleCount(scores map[string]domain.WalletScore, floor float64) int {
	n := 0
	for _, s := range scores {
		if s.Eligible(floor) {
			n++
		}
	}
	return n
}
