package ports

import (
	"context"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// Notifier presenta los resultados de cada etapa al usuario.
type Notifier interface {
	// NotifyScores muestra el top de wallets por composite y el resumen de la distribución.
	NotifyScores(ctx context.Context, top []domain.WalletScore, dist domain.ScoreDistribution) error

	// NotifyBacktest muestra la tabla por umbral y el mejor umbral.
	// Con showSignals imprime además las señales emitidas.
	NotifyBacktest(ctx context.Context, report domain.BacktestReport, showSignals bool) error
}
