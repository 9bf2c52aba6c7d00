package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polybasket/internal/backtest"
	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/google/uuid"
)

// RunBacktest reproduce el timeline para cada umbral, persiste el run y
// muestra el resumen con el mejor umbral.
func (p *Pipeline) RunBacktest(ctx context.Context) (domain.BacktestReport, error) {
	scores, err := p.storage.GetScores(ctx)
	if err != nil {
		return domain.BacktestReport{}, fmt.Errorf("pipeline.RunBacktest: %w", err)
	}
	if len(scores) == 0 {
		return domain.BacktestReport{}, fmt.Errorf("pipeline.RunBacktest: no wallet scores: %w", ErrMissingStage)
	}

	outcomes, err := p.storage.GetResolutions(ctx)
	if err != nil {
		return domain.BacktestReport{}, fmt.Errorf("pipeline.RunBacktest: %w", err)
	}
	if len(outcomes) == 0 {
		slog.Warn("no resolved markets, signals cannot be verified")
	}

	profiles, err := p.loadProfiles(ctx)
	if err != nil {
		return domain.BacktestReport{}, fmt.Errorf("pipeline.RunBacktest: %w", err)
	}

	timeline := backtest.BuildTimeline(profiles)
	sim := backtest.NewSimulator(p.params, scores, outcomes)
	params := sim.Params()

	slog.Info("backtest starting",
		"timeline_trades", timeline.Len(),
		"wallets_scored", len(scores),
		"resolved_markets", len(outcomes),
		"thresholds", len(p.cfg.Thresholds),
	)

	results, err := backtest.RunThresholds(ctx, sim, timeline, p.cfg.Thresholds)
	if err != nil {
		return domain.BacktestReport{}, fmt.Errorf("pipeline.RunBacktest: %w", err)
	}

	report := domain.BacktestReport{
		RunID:          uuid.NewString(),
		RunAt:          p.now().UTC(),
		WalletsScored:  len(scores),
		EligibleCount:  backtest.EligibleCount(scores, params.ReputationFloor),
		TimelineTrades: timeline.Len(),
		Results:        results,
		Best:           backtest.BestThreshold(results, p.cfg.MinVerifiedForBest),
	}

	if err := p.storage.SaveBacktestRun(ctx, report); err != nil {
		return report, fmt.Errorf("pipeline.RunBacktest: %w", err)
	}
	if err := p.notifier.NotifyBacktest(ctx, report, p.cfg.ShowSignals); err != nil {
		slog.Warn("notify backtest failed", "err", err)
	}

	attrs := []any{"run_id", report.RunID, "eligible", report.EligibleCount}
	if report.Best != nil {
		attrs = append(attrs, "best_threshold", report.Best.Threshold, "accuracy", report.Best.Accuracy)
	}
	slog.Info("backtest complete", attrs...)
	return report, nil
}
