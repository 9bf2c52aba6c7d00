package pipeline

import (
	"testing"

	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestWalletAggregator_CountsMarketOnce(t *testing.T) {
	agg := newWalletAggregator()
	// Una wallet con YES y NO del mismo mercado aparece dos veces en /holders.
	agg.add("0xm1", []domain.Holder{{Address: "0xa", Value: 3}, {Address: "0xa", Value: 4}})

	top := agg.top(0)
	assert.Len(t, top, 1)
	assert.Equal(t, []string{"0xm1"}, top[0].MarketsSeen)
	assert.InDelta(t, 7, top[0].TotalValue, 1e-12)
}

func TestWalletAggregator_TieBreaksByAddress(t *testing.T) {
	agg := newWalletAggregator()
	agg.add("0xm1", []domain.Holder{{Address: "0xc"}, {Address: "0xa"}, {Address: "0xb"}})

	var addrs []string
	for _, w := range agg.top(0) {
		addrs = append(addrs, w.Address)
	}
	assert.Equal(t, []string{"0xa", "0xb", "0xc"}, addrs)
}

func TestRankScores(t *testing.T) {
	ranked := rankScores(map[string]domain.WalletScore{
		"0xa": {WalletID: "0xa", CompositeScore: 50},
		"0xb": {WalletID: "0xb", CompositeScore: 80},
		"0xc": {WalletID: "0xc", CompositeScore: 50},
	})
	assert.Equal(t, "0xb", ranked[0].WalletID)
	assert.Equal(t, "0xa", ranked[1].WalletID)
	assert.Equal(t, "0xc", ranked[2].WalletID)
}
