package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del backtester.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Backtest  BacktestConfig  `yaml:"backtest"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// APIConfig contiene los base URLs de las APIs y la política de reintentos.
type APIConfig struct {
	GammaBase      string `yaml:"gamma_base"`
	DataBase       string `yaml:"data_base"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     *int   `yaml:"max_retries"` // nil = 3; 0 = sin reintentos
}

// DiscoveryConfig controla la selección de mercados semilla y de la cesta.
type DiscoveryConfig struct {
	Markets          int     `yaml:"markets"`           // cerrados; los activos piden la mitad
	ClosedMinVolume  float64 `yaml:"closed_min_volume"` // USDC
	ActiveMinVolume  float64 `yaml:"active_min_volume"` // USDC
	HoldersPerMarket int     `yaml:"holders_per_market"`
	MaxWallets       int     `yaml:"max_wallets"`
}

// IngestConfig controla la descarga del historial de trades.
type IngestConfig struct {
	MonthsBack int `yaml:"months_back"`
	MaxTrades  int `yaml:"max_trades"` // por wallet
	Workers    int `yaml:"workers"`
}

// ScoringConfig contiene los pesos y caps del score de reputación.
type ScoringConfig struct {
	Workers            int                `yaml:"workers"` // 0 = NumCPU × 2
	TopN               int                `yaml:"top_n"`
	MinTrades          int                `yaml:"min_trades"`
	Weights            map[string]float64 `yaml:"weights"` // vacío = pesos de referencia
	ExperienceMarkets  float64            `yaml:"experience_markets"`
	VolumeSaturation   float64            `yaml:"volume_saturation"`
	ROISpanPct         float64            `yaml:"roi_span_pct"`
	ConsistencyPenalty float64            `yaml:"consistency_penalty"`
	TimingScale        float64            `yaml:"timing_scale"`
	SpecializationCap  float64            `yaml:"specialization_cap"`
	RiskPenalty        float64            `yaml:"risk_penalty"`
	BotScale           float64            `yaml:"bot_scale"`
	RecencyWindowDays  int                `yaml:"recency_window_days"`
	RecencyTarget      float64            `yaml:"recency_target"`
	CapacityScale      float64            `yaml:"capacity_scale"`
	CapacityMinSizes   int                `yaml:"capacity_min_sizes"`
	CapacityMinPairs   int                `yaml:"capacity_min_pairs"`
}

// BacktestConfig contiene los parámetros del consenso.
type BacktestConfig struct {
	Thresholds         []float64 `yaml:"thresholds"`
	MinQuorum          int       `yaml:"min_quorum"`
	HalfLifeHours      float64   `yaml:"half_life_hours"`
	ReputationFloor    *float64  `yaml:"reputation_floor"` // nil = 60; 0 = todas las wallets
	ConvictionCap      float64   `yaml:"conviction_cap"`
	WindowHalfLives    float64   `yaml:"window_half_lives"`
	MinVerifiedForBest int       `yaml:"min_verified_for_best"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Timeout devuelve el timeout HTTP como time.Duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RecencyWindow devuelve la ventana de recency como time.Duration.
func (c ScoringConfig) RecencyWindow() time.Duration {
	return time.Duration(c.RecencyWindowDays) * 24 * time.Hour
}

// Lookback devuelve cuánto historial se descarga (meses de 30 días).
func (c IngestConfig) Lookback() time.Duration {
	return time.Duration(c.MonthsBack) * 30 * 24 * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BASKET_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("BASKET_HALF_LIFE_HOURS"); v != "" {
		if h, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backtest.HalfLifeHours = h
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 30
	}
	if cfg.API.MaxRetries == nil || *cfg.API.MaxRetries < 0 {
		cfg.API.MaxRetries = ptr(3)
	}

	if cfg.Discovery.Markets <= 0 {
		cfg.Discovery.Markets = 200
	}
	if cfg.Discovery.ClosedMinVolume <= 0 {
		cfg.Discovery.ClosedMinVolume = 100_000
	}
	if cfg.Discovery.ActiveMinVolume <= 0 {
		cfg.Discovery.ActiveMinVolume = 500_000
	}
	if cfg.Discovery.HoldersPerMarket <= 0 {
		cfg.Discovery.HoldersPerMarket = 100
	}
	if cfg.Discovery.MaxWallets <= 0 {
		cfg.Discovery.MaxWallets = 200
	}

	if cfg.Ingest.MonthsBack <= 0 {
		cfg.Ingest.MonthsBack = 6
	}
	if cfg.Ingest.MaxTrades <= 0 {
		cfg.Ingest.MaxTrades = 5000
	}
	if cfg.Ingest.Workers <= 0 {
		cfg.Ingest.Workers = 4
	}

	if cfg.Scoring.TopN <= 0 {
		cfg.Scoring.TopN = 10
	}
	if cfg.Scoring.RecencyWindowDays <= 0 {
		cfg.Scoring.RecencyWindowDays = 30
	}

	if len(cfg.Backtest.Thresholds) == 0 {
		cfg.Backtest.Thresholds = []float64{0.60, 0.65, 0.70, 0.75, 0.80, 0.85, 0.90}
	}
	if cfg.Backtest.MinQuorum <= 0 {
		cfg.Backtest.MinQuorum = 3
	}
	if cfg.Backtest.HalfLifeHours <= 0 {
		cfg.Backtest.HalfLifeHours = 24
	}
	if cfg.Backtest.ReputationFloor == nil || *cfg.Backtest.ReputationFloor < 0 {
		cfg.Backtest.ReputationFloor = ptr(60.0)
	}
	if cfg.Backtest.ConvictionCap <= 0 {
		cfg.Backtest.ConvictionCap = 3
	}
	if cfg.Backtest.WindowHalfLives <= 0 {
		cfg.Backtest.WindowHalfLives = 4
	}
	if cfg.Backtest.MinVerifiedForBest <= 0 {
		cfg.Backtest.MinVerifiedForBest = 5
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polybasket.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func ptr[T any](v T) *T { return &v }
