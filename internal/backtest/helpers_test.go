package backtest

import "github.com/alejandrodnm/polybasket/internal/domain"

const t0 = int64(1_700_000_000)

func pos(wallet, market string, side domain.Side, notional float64, ts int64) domain.MarketPosition {
	return domain.MarketPosition{NormalizedTrade: domain.NormalizedTrade{
		WalletID:  wallet,
		MarketID:  market,
		Side:      side,
		Price:     0.55,
		Notional:  notional,
		Timestamp: ts,
	}}
}

func score(wallet string, composite, median float64) domain.WalletScore {
	return domain.WalletScore{WalletID: wallet, CompositeScore: composite, MedianPositionSize: median}
}

func profile(wallet string, positions ...domain.MarketPosition) domain.WalletProfile {
	p := domain.WalletProfile{WalletID: wallet}
	for _, mp := range positions {
		p.Trades = append(p.Trades, mp.NormalizedTrade)
	}
	return p
}

// basketScores: tres wallets elegibles (70) y una por debajo del umbral (40).
func basketScores() map[string]domain.WalletScore {
	return map[string]domain.WalletScore{
		"w1": score("w1", 70, 100),
		"w2": score("w2", 70, 100),
		"w3": score("w3", 70, 100),
		"w4": score("w4", 40, 100),
	}
}
