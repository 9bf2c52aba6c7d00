package polymarket

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

const holdersPath = "/holders"

// FetchHolders obtiene los top holders de un mercado, de todos sus tokens.
func (c *Client) FetchHolders(ctx context.Context, conditionID string, limit int) ([]domain.Holder, error) {
	params := url.Values{}
	params.Set("market", conditionID)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp []holderGroup
	if err := c.get(ctx, c.data, c.dataBase+holdersPath+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("data-api.FetchHolders: %s: %w", shortID(conditionID), err)
	}
	return flattenHolders(resp), nil
}

func shortID(id string) string {
	return id[:min(10, len(id))]
}
