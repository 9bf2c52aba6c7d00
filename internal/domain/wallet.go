package domain

// Wallet es una wallet descubierta entre los top holders de los mercados semilla.
type Wallet struct {
	Address     string
	Pseudonym   string
	MarketsSeen []string // conditionIds donde apareció como holder
	TotalValue  float64  // suma de los holdings observados
}

// WalletProfile agrupa la metadata de una wallet y sus trades normalizados.
// Los trades se congelan antes de puntuar.
type WalletProfile struct {
	WalletID    string
	DisplayName string
	Trades      []NormalizedTrade
}

// Nombres de los 12 factores del score de reputación.
const (
	FactorWinRate        = "win_rate"
	FactorROI            = "roi"
	FactorConsistency    = "consistency"
	FactorVolume         = "volume"
	FactorExperience     = "experience"
	FactorTimingEdge     = "timing_edge"
	FactorSpecialization = "specialization"
	FactorRiskStability  = "risk_stability"
	FactorExitQuality    = "exit_quality"
	FactorBotScoreInv    = "bot_score_inv"
	FactorRecency        = "recency"
	FactorCapacity       = "capacity"
)

// FactorNames devuelve los factores en orden canónico.
func FactorNames() []string {
	return []string{
		FactorWinRate, FactorROI, FactorConsistency, FactorVolume,
		FactorExperience, FactorTimingEdge, FactorSpecialization, FactorRiskStability,
		FactorExitQuality, FactorBotScoreInv, FactorRecency, FactorCapacity,
	}
}

// WalletScore es el score derivado de una wallet. Solo existe para wallets
// con datos suficientes; la ausencia no equivale a score 0.
type WalletScore struct {
	WalletID           string
	DisplayName        string
	CompositeScore     float64            // 0-100
	Factors            map[string]float64 // factor → 0-100
	TradeCount         int
	UniqueMarketCount  int
	MedianPositionSize float64 // USDC, baseline de convicción
	TotalVolume        float64 // USDC comprados
}

// Eligible indica si la wallet entra en la cesta con el umbral de reputación dado.
func (s WalletScore) Eligible(floor float64) bool {
	return s.CompositeScore >= floor
}

// Holder es una posición observada en /holders para un mercado semilla.
type Holder struct {
	Address   string
	Pseudonym string
	Value     float64
}

// ScoreDistribution resume los composites de las wallets puntuadas.
type ScoreDistribution struct {
	Count   int
	Mean    float64
	Median  float64
	StdDev  float64
	Above60 int
	Above70 int
	Above80 int
}

// Distribution calcula el resumen de los composites.
func Distribution(scores []WalletScore) ScoreDistribution {
	values := make([]float64, len(scores))
	d := ScoreDistribution{Count: len(scores)}
	for i, s := range scores {
		values[i] = s.CompositeScore
		switch {
		case s.CompositeScore >= 80:
			d.Above80++
			fallthrough
		case s.CompositeScore >= 70:
			d.Above70++
			fallthrough
		case s.CompositeScore >= 60:
			d.Above60++
		}
	}
	d.Mean = Mean(values)
	d.Median = Median(values)
	d.StdDev = StdDev(values)
	return d
}
