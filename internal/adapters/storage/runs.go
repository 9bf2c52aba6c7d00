package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// SaveScores reemplaza los scores. Una wallet sin score (datos insuficientes)
// no tiene fila.
func (s *SQLiteStorage) SaveScores(ctx context.Context, scores []domain.WalletScore) error {
	now := s.now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveScores: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wallet_scores`); err != nil {
		return fmt.Errorf("storage.SaveScores: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO wallet_scores
			(wallet, display_name, composite, factors, trade_count, unique_markets,
			 median_size, total_volume, scored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveScores: prepare: %w", err)
	}
	defer stmt.Close()

	for _, sc := range scores {
		factors, err := json.Marshal(sc.Factors)
		if err != nil {
			return fmt.Errorf("storage.SaveScores: encode factors %s: %w", sc.WalletID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			sc.WalletID, sc.DisplayName, sc.CompositeScore, string(factors),
			sc.TradeCount, sc.UniqueMarketCount, sc.MedianPositionSize, sc.TotalVolume, now,
		); err != nil {
			return fmt.Errorf("storage.SaveScores: insert %s: %w", sc.WalletID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveScores: commit: %w", err)
	}
	return nil
}

// GetScores devuelve wallet → score.
func (s *SQLiteStorage) GetScores(ctx context.Context) (map[string]domain.WalletScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT wallet, display_name, composite, factors, trade_count, unique_markets,
		       median_size, total_volume
		FROM wallet_scores
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetScores: query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.WalletScore)
	for rows.Next() {
		var sc domain.WalletScore
		var name sql.NullString
		var factors string
		if err := rows.Scan(
			&sc.WalletID, &name, &sc.CompositeScore, &factors,
			&sc.TradeCount, &sc.UniqueMarketCount, &sc.MedianPositionSize, &sc.TotalVolume,
		); err != nil {
			return nil, fmt.Errorf("storage.GetScores: scan row: %w", err)
		}
		sc.DisplayName = name.String
		if err := json.Unmarshal([]byte(factors), &sc.Factors); err != nil {
			return nil, fmt.Errorf("storage.GetScores: decode factors %s: %w", sc.WalletID, err)
		}
		out[sc.WalletID] = sc
	}
	return out, rows.Err()
}

// SaveBacktestRun persiste un run completo: cabecera, resultado por umbral y señales.
func (s *SQLiteStorage) SaveBacktestRun(ctx context.Context, r domain.BacktestReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktestRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	var best *float64
	if r.Best != nil {
		best = &r.Best.Threshold
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO backtest_runs (run_id, run_at, wallets_scored, eligible, timeline_trades, best_threshold)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.RunID, r.RunAt.Unix(), r.WalletsScored, r.EligibleCount, r.TimelineTrades, best); err != nil {
		return fmt.Errorf("storage.SaveBacktestRun: insert run %s: %w", r.RunID, err)
	}

	resStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO threshold_results
			(run_id, threshold, position, total, verified, correct, accuracy, mean_consensus, mean_agreeing)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktestRun: prepare results: %w", err)
	}
	defer resStmt.Close()

	sigStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO signals
			(run_id, threshold, seq, ts, market_id, slug, title, direction, consensus,
			 agreeing, total, entry_price, actual_outcome, correct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktestRun: prepare signals: %w", err)
	}
	defer sigStmt.Close()

	for pos, res := range r.Results {
		if _, err := resStmt.ExecContext(ctx,
			r.RunID, res.Threshold, pos, res.TotalSignals, res.VerifiedSignals, res.CorrectSignals,
			res.Accuracy, res.MeanConsensus, res.MeanAgreeing,
		); err != nil {
			return fmt.Errorf("storage.SaveBacktestRun: insert threshold %.2f: %w", res.Threshold, err)
		}
		for seq, sig := range res.Signals {
			var correct *int
			if sig.Correct != nil {
				v := boolInt(*sig.Correct)
				correct = &v
			}
			if _, err := sigStmt.ExecContext(ctx,
				r.RunID, res.Threshold, seq, sig.Timestamp, sig.MarketID, sig.Slug, sig.Title,
				string(sig.Direction), sig.Consensus, sig.Agreeing, sig.Total, sig.EntryPrice,
				string(sig.ActualOutcome), correct,
			); err != nil {
				return fmt.Errorf("storage.SaveBacktestRun: insert signal %s: %w", sig.MarketID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveBacktestRun: commit: %w", err)
	}
	return nil
}

// GetBacktestRun carga un run persistido, o domain.ErrNotFound.
func (s *SQLiteStorage) GetBacktestRun(ctx context.Context, runID string) (domain.BacktestReport, error) {
	r := domain.BacktestReport{RunID: runID}
	var runAt int64
	var best sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT run_at, wallets_scored, eligible, timeline_trades, best_threshold
		FROM backtest_runs WHERE run_id = ?
	`, runID).Scan(&runAt, &r.WalletsScored, &r.EligibleCount, &r.TimelineTrades, &best)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("storage.GetBacktestRun: %s: %w", runID, domain.ErrNotFound)
	}
	if err != nil {
		return r, fmt.Errorf("storage.GetBacktestRun: query %s: %w", runID, err)
	}
	r.RunAt = time.Unix(runAt, 0).UTC()

	results, err := s.thresholdResults(ctx, runID)
	if err != nil {
		return r, err
	}
	r.Results = results

	if best.Valid {
		for i := range r.Results {
			if r.Results[i].Threshold == best.Float64 {
				r.Best = &r.Results[i]
				break
			}
		}
	}
	return r, nil
}

func (s *SQLiteStorage) thresholdResults(ctx context.Context, runID string) ([]domain.ThresholdResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT threshold, total, verified, correct, accuracy, mean_consensus, mean_agreeing
		FROM threshold_results WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetBacktestRun: query results: %w", err)
	}
	defer rows.Close()

	var results []domain.ThresholdResult
	for rows.Next() {
		var res domain.ThresholdResult
		if err := rows.Scan(&res.Threshold, &res.TotalSignals, &res.VerifiedSignals, &res.CorrectSignals,
			&res.Accuracy, &res.MeanConsensus, &res.MeanAgreeing); err != nil {
			return nil, fmt.Errorf("storage.GetBacktestRun: scan result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.GetBacktestRun: results: %w", err)
	}
	rows.Close()

	for i := range results {
		sigs, err := s.signals(ctx, runID, results[i].Threshold)
		if err != nil {
			return nil, err
		}
		results[i].Signals = sigs
	}
	return results, nil
}

func (s *SQLiteStorage) signals(ctx context.Context, runID string, threshold float64) ([]domain.Signal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, market_id, slug, title, direction, consensus, agreeing, total,
		       entry_price, actual_outcome, correct
		FROM signals WHERE run_id = ? AND threshold = ? ORDER BY seq
	`, runID, threshold)
	if err != nil {
		return nil, fmt.Errorf("storage.GetBacktestRun: query signals: %w", err)
	}
	defer rows.Close()

	var sigs []domain.Signal
	for rows.Next() {
		var sig domain.Signal
		var slug, title sql.NullString
		var direction, actual string
		var correct sql.NullInt64
		if err := rows.Scan(&sig.Timestamp, &sig.MarketID, &slug, &title, &direction,
			&sig.Consensus, &sig.Agreeing, &sig.Total, &sig.EntryPrice, &actual, &correct); err != nil {
			return nil, fmt.Errorf("storage.GetBacktestRun: scan signal: %w", err)
		}
		sig.Slug, sig.Title = slug.String, title.String
		sig.Direction = domain.Outcome(direction)
		sig.ActualOutcome = domain.Outcome(actual)
		if correct.Valid {
			c := correct.Int64 == 1
			sig.Correct = &c
		}
		sigs = append(sigs, sig)
	}
	return sigs, rows.Err()
}
