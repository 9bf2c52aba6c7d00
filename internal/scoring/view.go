package scoring

import (
	"sort"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// WalletView es el input precalculado que reciben los factores.
// Se construye una vez por wallet y es de solo lectura.
type WalletView struct {
	Profile domain.WalletProfile
	AsOf    int64 // instante de evaluación (unix), lo fija el caller

	// Positions agrupa los trades por mercado. MarketIDs conserva el orden de
	// primera aparición para que todo recorrido sea determinista.
	Positions map[string][]domain.NormalizedTrade
	MarketIDs []string

	Sizes         []float64 // notional de cada trade con notional > 0, en orden de llegada
	ClosedReturns []float64 // (avgSell - avgBuy) / avgBuy por posición cerrada
	ClosedCount   int       // posiciones con al menos un BUY y un SELL
	ClosedWins    int       // posiciones cerradas con avgSell > avgBuy
	TotalBought   float64   // Σ notional BUY
	TotalSold     float64   // Σ notional SELL
}

// NewWalletView precalcula las agregaciones de una wallet.
// Los trades sin mercado cuentan para totales pero no forman posición.
func NewWalletView(profile domain.WalletProfile, asOf int64) *WalletView {
	v := &WalletView{
		Profile:   profile,
		AsOf:      asOf,
		Positions: make(map[string][]domain.NormalizedTrade),
	}

	for _, t := range profile.Trades {
		if t.Notional > 0 {
			v.Sizes = append(v.Sizes, t.Notional)
		}
		switch t.Side {
		case domain.SideBuy:
			v.TotalBought += t.Notional
		case domain.SideSell:
			v.TotalSold += t.Notional
		}
		if !t.HasMarket() {
			continue
		}
		if _, seen := v.Positions[t.MarketID]; !seen {
			v.MarketIDs = append(v.MarketIDs, t.MarketID)
		}
		v.Positions[t.MarketID] = append(v.Positions[t.MarketID], t)
	}

	for _, id := range v.MarketIDs {
		avgBuy, avgSell, closed := closedPrices(v.Positions[id])
		if !closed {
			continue
		}
		v.ClosedCount++
		if avgSell > avgBuy {
			v.ClosedWins++
		}
		ret := 0.0
		if avgBuy > 0 {
			ret = (avgSell - avgBuy) / avgBuy
		}
		v.ClosedReturns = append(v.ClosedReturns, ret)
	}

	return v
}

// TradeCount devuelve el número total de trades de la wallet.
func (v *WalletView) TradeCount() int { return len(v.Profile.Trades) }

// closedPrices devuelve el precio medio de BUY y de SELL de una posición.
// closed=false si a la posición le falta alguno de los dos lados.
func closedPrices(trades []domain.NormalizedTrade) (avgBuy, avgSell float64, closed bool) {
	var buys, sells []float64
	for _, t := range trades {
		switch t.Side {
		case domain.SideBuy:
			buys = append(buys, t.Price)
		case domain.SideSell:
			sells = append(sells, t.Price)
		}
	}
	if len(buys) == 0 || len(sells) == 0 {
		return 0, 0, false
	}
	return domain.Mean(buys), domain.Mean(sells), true
}

// sortedByTime devuelve una copia ordenada por timestamp, estable en empates.
func sortedByTime(trades []domain.NormalizedTrade) []domain.NormalizedTrade {
	out := make([]domain.NormalizedTrade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}
