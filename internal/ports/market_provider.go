package ports

import (
	"context"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// MarketQuery filtra la consulta de mercados de Gamma.
type MarketQuery struct {
	Closed    bool
	MinVolume float64
	Limit     int
}

// MarketProvider obtiene los mercados de referencia desde Gamma.
type MarketProvider interface {
	// FetchTopMarkets devuelve los mercados ordenados por volumen descendente.
	// Los cerrados traen los outcomePrices finales para derivar la resolución.
	FetchTopMarkets(ctx context.Context, q MarketQuery) ([]domain.Market, error)
}

// HolderProvider obtiene los top holders de un mercado desde la Data API.
type HolderProvider interface {
	FetchHolders(ctx context.Context, conditionID string, limit int) ([]domain.Holder, error)
}
