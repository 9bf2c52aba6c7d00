package scoring

import (
	"fmt"
	"testing"

	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = int64(86400)

func trade(market string, side domain.Side, price, notional float64, ts int64) domain.NormalizedTrade {
	return domain.NormalizedTrade{
		WalletID:  "0xwallet",
		MarketID:  market,
		Side:      side,
		Price:     price,
		Size:      notional / price,
		Notional:  notional,
		Timestamp: ts,
		Slug:      "slug-" + market,
	}
}

// closedPositions crea n posiciones cerradas con compra a 0.5 y venta a sellPrice.
func closedPositions(n int, sellPrice, notional float64, start int64) []domain.NormalizedTrade {
	var out []domain.NormalizedTrade
	for i := 0; i < n; i++ {
		m := fmt.Sprintf("0xm%02d", i)
		ts := start + int64(i)*3600
		out = append(out,
			trade(m, domain.SideBuy, 0.5, notional, ts),
			trade(m, domain.SideSell, sellPrice, notional, ts+600),
		)
	}
	return out
}

func TestScorer_AbsentBelowMinTrades(t *testing.T) {
	s := NewScorer(DefaultParams(), nil)
	profile := domain.WalletProfile{WalletID: "0x1", Trades: closedPositions(4, 0.6, 10, 1000)} // 8 trades

	_, ok := s.Score(profile, 1_000_000)
	assert.False(t, ok)
}

func TestScorer_AbsentWithoutPositiveNotional(t *testing.T) {
	s := NewScorer(DefaultParams(), nil)
	profile := domain.WalletProfile{WalletID: "0x1", Trades: closedPositions(6, 0.6, 0, 1000)}

	_, ok := s.Score(profile, 1_000_000)
	assert.False(t, ok)
}

func TestScorer_Score_FullProfile(t *testing.T) {
	s := NewScorer(DefaultParams(), nil)
	profile := domain.WalletProfile{
		WalletID:    "0x1",
		DisplayName: "whale",
		Trades:      closedPositions(6, 0.6, 100, 1000),
	}

	score, ok := s.Score(profile, 1000+30*day)
	require.True(t, ok)

	assert.Equal(t, "0x1", score.WalletID)
	assert.Equal(t, "whale", score.DisplayName)
	assert.Equal(t, 12, score.TradeCount)
	assert.Equal(t, 6, score.UniqueMarketCount)
	assert.InDelta(t, 100.0, score.MedianPositionSize, 1e-9)
	assert.InDelta(t, 600.0, score.TotalVolume, 1e-9)
	assert.Len(t, score.Factors, 12)
	assert.Equal(t, score.Factors[domain.FactorWinRate], score.Factors[domain.FactorExitQuality])
	assert.InDelta(t, 100.0, score.Factors[domain.FactorWinRate], 1e-9)

	assert.GreaterOrEqual(t, score.CompositeScore, 0.0)
	assert.LessOrEqual(t, score.CompositeScore, 100.0)
	assert.InDelta(t, Composite(score.Factors, DefaultWeights()), score.CompositeScore, 1e-9)
}

func TestScorer_Deterministic(t *testing.T) {
	s := NewScorer(DefaultParams(), nil)
	profile := domain.WalletProfile{WalletID: "0x1", Trades: closedPositions(8, 0.55, 75, 5000)}

	a, ok := s.Score(profile, 5000+10*day)
	require.True(t, ok)
	b, _ := s.Score(profile, 5000+10*day)
	assert.Equal(t, a, b)
}

func TestComposite_AllHundredAndAllZero(t *testing.T) {
	hundred := make(map[string]float64)
	zero := make(map[string]float64)
	for _, name := range domain.FactorNames() {
		hundred[name] = 100
		zero[name] = 0
	}
	assert.InDelta(t, 100.0, Composite(hundred, DefaultWeights()), 1e-9)
	assert.Equal(t, 0.0, Composite(zero, DefaultWeights()))
}

func TestDefaultWeights_SumToOne(t *testing.T) {
	w := DefaultWeights()
	assert.Len(t, w, 12)
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	for _, name := range domain.FactorNames() {
		assert.Contains(t, w, name)
	}
}

func TestComposite_InjectedWeights(t *testing.T) {
	factors := map[string]float64{domain.FactorWinRate: 80, domain.FactorROI: 40}
	got := Composite(factors, Weights{domain.FactorWinRate: 0.5, domain.FactorROI: 0.5})
	assert.InDelta(t, 60.0, got, 1e-9)
}

type constFactor struct {
	name  string
	value float64
}

func (c constFactor) Name() string                { return c.name }
func (c constFactor) Score(_ *WalletView) float64 { return c.value }

func TestScorer_WithFactor_ReplacesByName(t *testing.T) {
	base := NewScorer(DefaultParams(), nil)
	swapped := base.WithFactor(constFactor{domain.FactorCapacity, 7})
	profile := domain.WalletProfile{WalletID: "0x1", Trades: closedPositions(6, 0.6, 100, 1000)}

	orig, ok := base.Score(profile, 2000)
	require.True(t, ok)
	got, ok := swapped.Score(profile, 2000)
	require.True(t, ok)

	assert.Equal(t, 7.0, got.Factors[domain.FactorCapacity])
	assert.Len(t, got.Factors, 12)
	assert.NotEqual(t, 7.0, orig.Factors[domain.FactorCapacity])
}

func TestNewScorer_ZeroParamsUseDefaults(t *testing.T) {
	s := NewScorer(Params{}, nil)
	profile := domain.WalletProfile{WalletID: "0x1", Trades: closedPositions(4, 0.6, 10, 1000)}
	_, ok := s.Score(profile, 0)
	assert.False(t, ok, "MinTrades por defecto es 10")
}

func TestScorer_Weights(t *testing.T) {
	assert.Equal(t, DefaultWeights(), NewScorer(DefaultParams(), nil).Weights())

	custom := Weights{domain.FactorWinRate: 1}
	assert.Equal(t, custom, NewScorer(DefaultParams(), custom).Weights())
}
