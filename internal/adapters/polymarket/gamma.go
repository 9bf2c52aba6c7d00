package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/alejandrodnm/polybasket/internal/ports"
)

const gammaMarketsPath = "/markets"

// FetchTopMarkets obtiene los mercados de Gamma ordenados por volumen descendente.
// Con q.Closed pide mercados cerrados; si no, mercados activos.
func (c *Client) FetchTopMarkets(ctx context.Context, q ports.MarketQuery) ([]domain.Market, error) {
	params := url.Values{}
	if q.Closed {
		params.Set("closed", "true")
	} else {
		params.Set("active", "true")
	}
	params.Set("order", "volume")
	params.Set("ascending", "false")
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.MinVolume > 0 {
		params.Set("volume_num_min", strconv.FormatFloat(q.MinVolume, 'f', -1, 64))
	}

	u := c.gammaBase + gammaMarketsPath + "?" + params.Encode()
	var resp []gammaMarket
	if err := c.get(ctx, c.gamma, u, &resp); err != nil {
		return nil, fmt.Errorf("gamma.FetchTopMarkets: %w", err)
	}

	markets := mapGammaMarkets(resp)
	slog.Debug("gamma markets fetched",
		"closed", q.Closed,
		"raw", len(resp),
		"markets", len(markets),
	)
	return markets, nil
}
