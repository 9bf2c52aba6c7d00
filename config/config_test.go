package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Discovery.Markets)
	assert.Equal(t, 10, cfg.Scoring.CapacityMinSizes)
	assert.Equal(t, 4, cfg.Scoring.CapacityMinPairs)
	require.NotNil(t, cfg.Backtest.ReputationFloor)
	assert.Equal(t, 60.0, *cfg.Backtest.ReputationFloor)
	assert.Equal(t, 200, cfg.Discovery.MaxWallets)
	assert.Equal(t, 5000, cfg.Ingest.MaxTrades)
	assert.Len(t, cfg.Scoring.Weights, 12)
	assert.InDelta(t, 0.15, cfg.Scoring.Weights["win_rate"], 1e-12)
	assert.Equal(t, []float64{0.60, 0.65, 0.70, 0.75, 0.80, 0.85, 0.90}, cfg.Backtest.Thresholds)
	assert.Equal(t, 30*24*time.Hour, cfg.Scoring.RecencyWindow())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "https://data-api.polymarket.com", cfg.API.DataBase)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.Equal(t, 3, cfg.Backtest.MinQuorum)
	assert.Equal(t, 24.0, cfg.Backtest.HalfLifeHours)
	assert.Equal(t, 5, cfg.Backtest.MinVerifiedForBest)
	assert.Equal(t, 180*24*time.Hour, cfg.Ingest.Lookback())
	assert.Empty(t, cfg.Scoring.Weights)
	assert.Equal(t, 200, cfg.Discovery.Markets)
	require.NotNil(t, cfg.API.MaxRetries)
	assert.Equal(t, 3, *cfg.API.MaxRetries)
	require.NotNil(t, cfg.Backtest.ReputationFloor)
	assert.Equal(t, 60.0, *cfg.Backtest.ReputationFloor)
}

func TestLoad_ExplicitZeroIsKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "api:\n  max_retries: 0\nbacktest:\n  reputation_floor: 0\nscoring:\n  capacity_min_sizes: 20\n  capacity_min_pairs: 8\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, *cfg.API.MaxRetries)
	assert.Equal(t, 0.0, *cfg.Backtest.ReputationFloor)
	assert.Equal(t, 20, cfg.Scoring.CapacityMinSizes)
	assert.Equal(t, 8, cfg.Scoring.CapacityMinPairs)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("BASKET_DSN", ":memory:")
	t.Setenv("BASKET_HALF_LIFE_HOURS", "12")

	cfg, err := Load(writeConfig(t, "storage:\n  dsn: file.db\nbacktest:\n  half_life_hours: 48\n"))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, 12.0, cfg.Backtest.HalfLifeHours)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "backtest: [unclosed"))
	assert.Error(t, err)
}
