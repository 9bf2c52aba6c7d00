package ports

import (
	"context"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// ActivityProvider obtiene el historial de trades de una wallet.
type ActivityProvider interface {
	// FetchWalletActivity devuelve los trades de la wallet desde since (unix
	// seconds) en orden ascendente, sin validar ni normalizar.
	// Pagina internamente y se detiene en maxTrades.
	FetchWalletActivity(ctx context.Context, address string, since int64, maxTrades int) ([]domain.RawTrade, error)
}
