package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

const (
	activityPath     = "/activity"
	activityPageSize = 500
)

// FetchWalletActivity obtiene los trades de una wallet desde since, en orden
// ascendente. Pagina por offset hasta una página vacía o incompleta, o hasta
// alcanzar maxTrades (0 = sin tope).
func (c *Client) FetchWalletActivity(ctx context.Context, address string, since int64, maxTrades int) ([]domain.RawTrade, error) {
	var all []domain.RawTrade

	for offset := 0; maxTrades <= 0 || offset < maxTrades; offset += activityPageSize {
		params := url.Values{}
		params.Set("user", address)
		params.Set("type", "TRADE")
		params.Set("limit", strconv.Itoa(activityPageSize))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("sortBy", "TIMESTAMP")
		params.Set("sortDirection", "ASC")
		if since > 0 {
			params.Set("start", strconv.FormatInt(since, 10))
		}

		var page []domain.RawTrade
		if err := c.get(ctx, c.data, c.dataBase+activityPath+"?"+params.Encode(), &page); err != nil {
			return nil, fmt.Errorf("data-api.FetchWalletActivity: %s: %w", shortID(address), err)
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)

		slog.Debug("fetched activity page",
			"wallet", shortID(address),
			"offset", offset,
			"count", len(page),
			"total", len(all),
		)

		if len(page) < activityPageSize {
			break
		}
	}

	if maxTrades > 0 && len(all) > maxTrades {
		all = all[:maxTrades]
	}
	return all, nil
}
