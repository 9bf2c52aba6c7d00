package polymarket

import (
	"github.com/alejandrodnm/polybasket/internal/domain"
)

// mapGammaMarkets convierte los DTOs de Gamma a domain.Market.
// Descarta los mercados sin conditionId.
func mapGammaMarkets(raw []gammaMarket) []domain.Market {
	markets := make([]domain.Market, 0, len(raw))
	for _, r := range raw {
		if r.ConditionID == "" {
			continue
		}
		markets = append(markets, mapGammaMarket(r))
	}
	return markets
}

func mapGammaMarket(r gammaMarket) domain.Market {
	volume := r.VolumeNum.Float64()
	if volume == 0 {
		volume = r.Volume.Float64()
	}
	return domain.Market{
		ConditionID:   r.ConditionID,
		Question:      r.Question,
		Slug:          r.Slug,
		Volume:        volume,
		Active:        r.Active,
		Closed:        r.Closed,
		OutcomePrices: []float64(r.OutcomePrices),
	}
}

// flattenHolders aplana las dos formas de /holders. Ignora entradas sin dirección.
func flattenHolders(groups []holderGroup) []domain.Holder {
	var out []domain.Holder
	add := func(e holderEntry) {
		if h, ok := mapHolder(e); ok {
			out = append(out, h)
		}
	}
	for _, g := range groups {
		if len(g.Holders) > 0 {
			for _, e := range g.Holders {
				add(e)
			}
			continue
		}
		add(g.holderEntry)
	}
	return out
}

func mapHolder(e holderEntry) (domain.Holder, bool) {
	addr := firstNonEmpty(e.ProxyWallet, e.Address, e.User)
	if addr == "" {
		return domain.Holder{}, false
	}
	value := e.Amount.Float64()
	if value == 0 {
		value = e.Value.Float64()
	}
	return domain.Holder{
		Address:   addr,
		Pseudonym: firstNonEmpty(e.Name, e.Pseudonym),
		Value:     value,
	}, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
