package domain_test

import (
	"testing"

	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDistribution(t *testing.T) {
	scores := []domain.WalletScore{
		{CompositeScore: 50},
		{CompositeScore: 60},
		{CompositeScore: 75},
		{CompositeScore: 85},
	}
	d := domain.Distribution(scores)

	assert.Equal(t, 4, d.Count)
	assert.InDelta(t, 67.5, d.Mean, 1e-9)
	assert.InDelta(t, 67.5, d.Median, 1e-9)
	assert.Equal(t, 3, d.Above60)
	assert.Equal(t, 2, d.Above70)
	assert.Equal(t, 1, d.Above80)
	assert.Greater(t, d.StdDev, 0.0)
}

func TestDistribution_Empty(t *testing.T) {
	d := domain.Distribution(nil)
	assert.Equal(t, domain.ScoreDistribution{}, d)
}

func TestWalletScore_Eligible(t *testing.T) {
	s := domain.WalletScore{CompositeScore: 60}
	assert.True(t, s.Eligible(60))
	assert.False(t, s.Eligible(60.01))
}
