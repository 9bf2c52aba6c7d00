package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/polybasket/internal/adapters/storage"
	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStorage_MarketsAndResolutions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveMarkets(ctx, []domain.Market{
		{ConditionID: "0xyes", Question: "A?", Closed: true, OutcomePrices: []float64{0.99, 0.01}},
		{ConditionID: "0xno", Question: "B?", Closed: true, OutcomePrices: []float64{0.2, 0.8}},
		{ConditionID: "0xopen", Question: "C?", Active: true},
	}))

	res, err := db.GetResolutions(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Outcome{
		"0xyes": domain.OutcomeYes,
		"0xno":  domain.OutcomeNo,
	}, res)

	// el upsert actualiza la resolución si el mercado cierra
	require.NoError(t, db.SaveMarkets(ctx, []domain.Market{
		{ConditionID: "0xopen", Question: "C?", Closed: true, OutcomePrices: []float64{0, 1}},
	}))
	res, err = db.GetResolutions(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNo, res["0xopen"])
}

func TestSQLiteStorage_WalletsKeepRanking(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	wallets := []domain.Wallet{
		{Address: "0xb", Pseudonym: "bob", MarketsSeen: []string{"0x1", "0x2"}, TotalValue: 900},
		{Address: "0xa", MarketsSeen: []string{"0x1"}, TotalValue: 5000},
	}
	require.NoError(t, db.SaveWallets(ctx, wallets))

	got, err := db.GetWallets(ctx)
	require.NoError(t, err)
	assert.Equal(t, wallets, got)

	// SaveWallets reemplaza la cesta
	require.NoError(t, db.SaveWallets(ctx, wallets[1:]))
	got, err = db.GetWallets(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0xa", got[0].Address)
}

func TestSQLiteStorage_RawTradesCache(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	has, err := db.HasRawTrades(ctx, "0xw")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = db.GetRawTrades(ctx, "0xw")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	trades := []domain.RawTrade{
		{ConditionID: "0xm", Side: "BUY", Price: 0.4, Size: 100, USDCSize: 40, Timestamp: 1700000000, Slug: "m"},
		{ConditionID: "0xm", Side: "SELL", Price: 0.7, Size: 100, USDCSize: 70, Timestamp: 1700003600},
	}
	require.NoError(t, db.SaveRawTrades(ctx, "0xw", trades))

	has, err = db.HasRawTrades(ctx, "0xw")
	require.NoError(t, err)
	assert.True(t, has)

	got, err := db.GetRawTrades(ctx, "0xw")
	require.NoError(t, err)
	assert.Equal(t, trades, got)
}

func TestSQLiteStorage_EmptyHistoryIsCached(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveRawTrades(ctx, "0xw", nil))

	has, err := db.HasRawTrades(ctx, "0xw")
	require.NoError(t, err)
	assert.True(t, has)

	got, err := db.GetRawTrades(ctx, "0xw")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteStorage_Scores(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	scores := []domain.WalletScore{
		{
			WalletID:           "0xa",
			DisplayName:        "alice",
			CompositeScore:     72.5,
			Factors:            map[string]float64{domain.FactorWinRate: 80, domain.FactorROI: 65},
			TradeCount:         40,
			UniqueMarketCount:  12,
			MedianPositionSize: 250,
			TotalVolume:        12000,
		},
	}
	require.NoError(t, db.SaveScores(ctx, scores))

	got, err := db.GetScores(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, scores[0], got["0xa"])
}

func sampleReport() domain.BacktestReport {
	yes, no := true, false
	results := []domain.ThresholdResult{
		{
			Threshold: 0.60, TotalSignals: 3, VerifiedSignals: 2, CorrectSignals: 1,
			Accuracy: 0.5, MeanConsensus: 0.72, MeanAgreeing: 3.3,
			Signals: []domain.Signal{
				{Timestamp: 1700000000, MarketID: "0xm1", Slug: "m1", Title: "M1", Direction: domain.OutcomeYes,
					Consensus: 0.8, Agreeing: 3, Total: 4, EntryPrice: 0.41, ActualOutcome: domain.OutcomeYes, Correct: &yes},
				{Timestamp: 1700000100, MarketID: "0xm2", Direction: domain.OutcomeNo,
					Consensus: 0.66, Agreeing: 4, Total: 5, EntryPrice: 0.3, ActualOutcome: domain.OutcomeYes, Correct: &no},
				{Timestamp: 1700000200, MarketID: "0xm3", Direction: domain.OutcomeYes,
					Consensus: 0.7, Agreeing: 3, Total: 3, EntryPrice: 0.5},
			},
		},
		{Threshold: 0.90},
	}
	r := domain.BacktestReport{
		RunID:          "run-1",
		RunAt:          time.Unix(1700500000, 0).UTC(),
		WalletsScored:  120,
		EligibleCount:  35,
		TimelineTrades: 9000,
		Results:        results,
	}
	r.Best = &r.Results[0]
	return r
}

func TestSQLiteStorage_BacktestRunRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	want := sampleReport()
	require.NoError(t, db.SaveBacktestRun(ctx, want))

	got, err := db.GetBacktestRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, want.RunAt, got.RunAt)
	assert.Equal(t, want.WalletsScored, got.WalletsScored)
	assert.Equal(t, want.EligibleCount, got.EligibleCount)
	assert.Equal(t, want.TimelineTrades, got.TimelineTrades)
	require.Len(t, got.Results, 2)
	assert.Equal(t, want.Results[0], got.Results[0])
	assert.Equal(t, 0.90, got.Results[1].Threshold)
	assert.Empty(t, got.Results[1].Signals)

	require.NotNil(t, got.Best)
	assert.Equal(t, 0.60, got.Best.Threshold)
	assert.Nil(t, got.Results[0].Signals[2].Correct)
}

func TestSQLiteStorage_BacktestRunWithoutBest(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	r := sampleReport()
	r.RunID = "run-2"
	r.Best = nil
	require.NoError(t, db.SaveBacktestRun(ctx, r))

	got, err := db.GetBacktestRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Nil(t, got.Best)
}

func TestSQLiteStorage_BacktestRunNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetBacktestRun(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
