package storage

// sqlite.go: artefactos del pipeline en un único archivo SQLite.
//
//   - `markets`: una fila por conditionId (UPSERT), con la resolución derivada.
//   - `wallets`: la cesta semilla en orden de ranking.
//   - `wallet_trades`: el historial raw de cada wallet como payload JSON. Se
//     reescribe entero en cada pull; la presencia de la fila marca la caché.
//   - `wallet_scores`, `backtest_runs`, `threshold_results`, `signals`: ver runs.go.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/polybasket/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS markets (
    condition_id   TEXT PRIMARY KEY,
    question       TEXT,
    slug           TEXT,
    volume         REAL    NOT NULL DEFAULT 0,
    active         INTEGER NOT NULL DEFAULT 0,
    closed         INTEGER NOT NULL DEFAULT 0,
    outcome_prices TEXT    NOT NULL DEFAULT '[]',
    resolution     TEXT    NOT NULL DEFAULT '',
    updated_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS wallets (
    address      TEXT PRIMARY KEY,
    rank         INTEGER NOT NULL,
    pseudonym    TEXT,
    markets_seen TEXT    NOT NULL DEFAULT '[]',
    total_value  REAL    NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS wallet_trades (
    wallet      TEXT PRIMARY KEY,
    trade_count INTEGER NOT NULL,
    payload     TEXT    NOT NULL,
    fetched_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS wallet_scores (
    wallet         TEXT PRIMARY KEY,
    display_name   TEXT,
    composite      REAL    NOT NULL,
    factors        TEXT    NOT NULL,
    trade_count    INTEGER NOT NULL,
    unique_markets INTEGER NOT NULL,
    median_size    REAL    NOT NULL,
    total_volume   REAL    NOT NULL,
    scored_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_runs (
    run_id          TEXT PRIMARY KEY,
    run_at          INTEGER NOT NULL,
    wallets_scored  INTEGER NOT NULL,
    eligible        INTEGER NOT NULL,
    timeline_trades INTEGER NOT NULL,
    best_threshold  REAL
);

CREATE TABLE IF NOT EXISTS threshold_results (
    run_id         TEXT    NOT NULL REFERENCES backtest_runs(run_id),
    threshold      REAL    NOT NULL,
    position       INTEGER NOT NULL,
    total          INTEGER NOT NULL,
    verified       INTEGER NOT NULL,
    correct        INTEGER NOT NULL,
    accuracy       REAL    NOT NULL,
    mean_consensus REAL    NOT NULL,
    mean_agreeing  REAL    NOT NULL,
    PRIMARY KEY (run_id, threshold)
);

CREATE TABLE IF NOT EXISTS signals (
    run_id         TEXT    NOT NULL REFERENCES backtest_runs(run_id),
    threshold      REAL    NOT NULL,
    seq            INTEGER NOT NULL,
    ts             INTEGER NOT NULL,
    market_id      TEXT    NOT NULL,
    slug           TEXT,
    title          TEXT,
    direction      TEXT    NOT NULL,
    consensus      REAL    NOT NULL,
    agreeing       INTEGER NOT NULL,
    total          INTEGER NOT NULL,
    entry_price    REAL    NOT NULL,
    actual_outcome TEXT    NOT NULL DEFAULT '',
    correct        INTEGER,
    PRIMARY KEY (run_id, threshold, seq)
);

CREATE INDEX IF NOT EXISTS idx_markets_resolution ON markets(resolution);
CREATE INDEX IF NOT EXISTS idx_scores_composite   ON wallet_scores(composite DESC);
CREATE INDEX IF NOT EXISTS idx_runs_at            ON backtest_runs(run_at DESC);
`

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db, now: time.Now}, nil
}

// SaveMarkets hace upsert de los mercados y de su resolución derivada.
func (s *SQLiteStorage) SaveMarkets(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}
	now := s.now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveMarkets: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO markets
			(condition_id, question, slug, volume, active, closed, outcome_prices, resolution, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(condition_id) DO UPDATE SET
			question       = excluded.question,
			slug           = excluded.slug,
			volume         = excluded.volume,
			active         = excluded.active,
			closed         = excluded.closed,
			outcome_prices = excluded.outcome_prices,
			resolution     = excluded.resolution,
			updated_at     = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveMarkets: prepare: %w", err)
	}
	defer stmt.Close()

	for _, m := range markets {
		prices, err := json.Marshal(nonNil(m.OutcomePrices))
		if err != nil {
			return fmt.Errorf("storage.SaveMarkets: encode prices %s: %w", m.ConditionID, err)
		}
		resolution, _ := m.Resolution()
		if _, err := stmt.ExecContext(ctx,
			m.ConditionID, m.Question, m.Slug, m.Volume,
			boolInt(m.Active), boolInt(m.Closed),
			string(prices), string(resolution), now,
		); err != nil {
			return fmt.Errorf("storage.SaveMarkets: upsert %s: %w", m.ConditionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveMarkets: commit: %w", err)
	}
	return nil
}

// GetResolutions devuelve conditionId → resultado de los mercados resueltos.
func (s *SQLiteStorage) GetResolutions(ctx context.Context) (map[string]domain.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT condition_id, resolution FROM markets WHERE resolution != ''`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetResolutions: query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Outcome)
	for rows.Next() {
		var cid, res string
		if err := rows.Scan(&cid, &res); err != nil {
			return nil, fmt.Errorf("storage.GetResolutions: scan row: %w", err)
		}
		out[cid] = domain.Outcome(res)
	}
	return out, rows.Err()
}

// SaveWallets reemplaza la cesta semilla. El orden del slice es el ranking.
func (s *SQLiteStorage) SaveWallets(ctx context.Context, wallets []domain.Wallet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveWallets: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wallets`); err != nil {
		return fmt.Errorf("storage.SaveWallets: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO wallets (address, rank, pseudonym, markets_seen, total_value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveWallets: prepare: %w", err)
	}
	defer stmt.Close()

	for i, w := range wallets {
		seen, err := json.Marshal(nonNil(w.MarketsSeen))
		if err != nil {
			return fmt.Errorf("storage.SaveWallets: encode markets %s: %w", w.Address, err)
		}
		if _, err := stmt.ExecContext(ctx, w.Address, i, w.Pseudonym, string(seen), w.TotalValue); err != nil {
			return fmt.Errorf("storage.SaveWallets: insert %s: %w", w.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveWallets: commit: %w", err)
	}
	return nil
}

// GetWallets devuelve la cesta semilla en orden de ranking.
func (s *SQLiteStorage) GetWallets(ctx context.Context) ([]domain.Wallet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT address, pseudonym, markets_seen, total_value FROM wallets ORDER BY rank`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetWallets: query: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		var pseudonym sql.NullString
		var seen string
		if err := rows.Scan(&w.Address, &pseudonym, &seen, &w.TotalValue); err != nil {
			return nil, fmt.Errorf("storage.GetWallets: scan row: %w", err)
		}
		w.Pseudonym = pseudonym.String
		if err := json.Unmarshal([]byte(seen), &w.MarketsSeen); err != nil {
			return nil, fmt.Errorf("storage.GetWallets: decode markets %s: %w", w.Address, err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// SaveRawTrades reemplaza el historial cacheado de una wallet.
func (s *SQLiteStorage) SaveRawTrades(ctx context.Context, wallet string, trades []domain.RawTrade) error {
	payload, err := json.Marshal(nonNil(trades))
	if err != nil {
		return fmt.Errorf("storage.SaveRawTrades: encode %s: %w", wallet, err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO wallet_trades (wallet, trade_count, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(wallet) DO UPDATE SET
			trade_count = excluded.trade_count,
			payload     = excluded.payload,
			fetched_at  = excluded.fetched_at
	`, wallet, len(trades), string(payload), s.now().Unix()); err != nil {
		return fmt.Errorf("storage.SaveRawTrades: upsert %s: %w", wallet, err)
	}
	return nil
}

// GetRawTrades devuelve el historial cacheado, o domain.ErrNotFound.
func (s *SQLiteStorage) GetRawTrades(ctx context.Context, wallet string) ([]domain.RawTrade, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM wallet_trades WHERE wallet = ?`, wallet).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage.GetRawTrades: %s: %w", wallet, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage.GetRawTrades: query %s: %w", wallet, err)
	}

	var trades []domain.RawTrade
	if err := json.Unmarshal([]byte(payload), &trades); err != nil {
		return nil, fmt.Errorf("storage.GetRawTrades: decode %s: %w", wallet, err)
	}
	return trades, nil
}

// HasRawTrades indica si la wallet tiene historial cacheado.
func (s *SQLiteStorage) HasRawTrades(ctx context.Context, wallet string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wallet_trades WHERE wallet = ?`, wallet).Scan(&n); err != nil {
		return false, fmt.Errorf("storage.HasRawTrades: query %s: %w", wallet, err)
	}
	return n > 0, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nonNil evita que un slice nil se serialice como null.
func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
