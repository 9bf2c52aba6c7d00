package backtest

import (
	"testing"

	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(tl Timeline) []domain.MarketPosition {
	var out []domain.MarketPosition
	for ev := range tl.All() {
		out = append(out, ev)
	}
	return out
}

func TestBuildTimeline_SortedAndStable(t *testing.T) {
	tl := BuildTimeline([]domain.WalletProfile{
		profile("w1",
			pos("w1", "0xa", domain.SideBuy, 10, t0+20),
			pos("w1", "0xb", domain.SideBuy, 10, t0),
		),
		profile("w2",
			pos("w2", "0xc", domain.SideSell, 10, t0),
			pos("w2", "0xd", domain.SideBuy, 10, t0+10),
		),
	})

	events := collect(tl)
	require.Len(t, events, 4)
	assert.Equal(t, 4, tl.Len())

	var markets []string
	for _, ev := range events {
		markets = append(markets, ev.MarketID)
	}
	// empate en t0: w1 antes que w2 por orden de entrada
	assert.Equal(t, []string{"0xb", "0xc", "0xd", "0xa"}, markets)
}

func TestBuildTimeline_DropsMissingTimestamps(t *testing.T) {
	tl := BuildTimeline([]domain.WalletProfile{
		profile("w1",
			pos("w1", "0xa", domain.SideBuy, 10, 0),
			pos("w1", "0xa", domain.SideBuy, 10, t0),
		),
	})
	assert.Equal(t, 1, tl.Len())
}

func TestBuildTimeline_FillsWalletFromProfile(t *testing.T) {
	tl := BuildTimeline([]domain.WalletProfile{
		profile("w9", pos("", "0xa", domain.SideBuy, 10, t0)),
	})
	events := collect(tl)
	require.Len(t, events, 1)
	assert.Equal(t, "w9", events[0].WalletID)
}

func TestTimeline_Reiterable(t *testing.T) {
	tl := BuildTimeline([]domain.WalletProfile{
		profile("w1",
			pos("w1", "0xa", domain.SideBuy, 10, t0+1),
			pos("w1", "0xb", domain.SideBuy, 10, t0),
		),
	})
	assert.Equal(t, collect(tl), collect(tl))
}

func TestTimeline_EarlyBreak(t *testing.T) {
	tl := BuildTimeline([]domain.WalletProfile{
		profile("w1",
			pos("w1", "0xa", domain.SideBuy, 10, t0),
			pos("w1", "0xb", domain.SideBuy, 10, t0+1),
			pos("w1", "0xc", domain.SideBuy, 10, t0+2),
		),
	})
	seen := 0
	for range tl.All() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestBuildTimeline_Empty(t *testing.T) {
	tl := BuildTimeline(nil)
	assert.Equal(t, 0, tl.Len())
	assert.Empty(t, collect(tl))
}
