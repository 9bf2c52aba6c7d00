package ports

import (
	"context"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// Storage persiste los artefactos intermedios del pipeline.
// Cada etapa lee lo que dejó la anterior.
type Storage interface {
	// Markets
	SaveMarkets(ctx context.Context, markets []domain.Market) error
	GetResolutions(ctx context.Context) (map[string]domain.Outcome, error)

	// Wallets
	SaveWallets(ctx context.Context, wallets []domain.Wallet) error
	GetWallets(ctx context.Context) ([]domain.Wallet, error)

	// Raw trades por wallet. GetRawTrades devuelve domain.ErrNotFound si la
	// wallet no tiene historial cacheado (un historial vacío sí cuenta).
	SaveRawTrades(ctx context.Context, wallet string, trades []domain.RawTrade) error
	GetRawTrades(ctx context.Context, wallet string) ([]domain.RawTrade, error)
	HasRawTrades(ctx context.Context, wallet string) (bool, error)

	// Scores
	SaveScores(ctx context.Context, scores []domain.WalletScore) error
	GetScores(ctx context.Context) (map[string]domain.WalletScore, error)

	// Backtest runs
	SaveBacktestRun(ctx context.Context, report domain.BacktestReport) error
	GetBacktestRun(ctx context.Context, runID string) (domain.BacktestReport, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
