package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/alejandrodnm/polybasket/internal/scoring"
	"github.com/stretchr/testify/assert"
)

func TestScoreConcurrent_MatchesSequential(t *testing.T) {
	scorer := scoring.NewScorer(scoring.DefaultParams(), nil)
	const asOf = int64(1_700_000_000)

	var profiles []domain.WalletProfile
	for w := 0; w < 25; w++ {
		p := domain.WalletProfile{WalletID: fmt.Sprintf("0x%02d", w)}
		for i := 0; i < 6+w; i++ {
			side := domain.SideBuy
			price := 0.3 + float64(i%5)*0.1
			if i%2 == 1 {
				side = domain.SideSell
			}
			p.Trades = append(p.Trades, domain.NormalizedTrade{
				WalletID:  p.WalletID,
				MarketID:  fmt.Sprintf("0xm%d", i/2),
				Side:      side,
				Price:     price,
				Notional:  float64(50 + 10*w + i),
				Timestamp: asOf - int64(100-i)*3600,
			})
		}
		profiles = append(profiles, p)
	}

	want := make(map[string]domain.WalletScore)
	for _, p := range profiles {
		if s, ok := scorer.Score(p, asOf); ok {
			want[p.WalletID] = s
		}
	}

	for _, workers := range []int{0, 1, 4} {
		got := scoreConcurrent(context.Background(), scorer, profiles, asOf, workers)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
	assert.Len(t, want, 21, "las 4 primeras wallets no llegan a MinTrades")
}
