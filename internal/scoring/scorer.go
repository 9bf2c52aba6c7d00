package scoring

import (
	"maps"
	"slices"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// Scorer aplica los factores y la tabla de pesos a cada wallet.
// Es de solo lectura tras construirse: seguro para uso concurrente.
type Scorer struct {
	params  Params
	weights Weights
	factors []Factor
}

// NewScorer crea un Scorer con los factores de referencia.
// weights nil usa DefaultWeights.
func NewScorer(p Params, weights Weights) *Scorer {
	p = p.withDefaults()
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Scorer{
		params:  p,
		weights: weights,
		factors: DefaultFactors(p),
	}
}

// WithFactor devuelve un Scorer con el factor del mismo nombre sustituido
// (o añadido si no existía). El Scorer original no cambia.
func (s *Scorer) WithFactor(f Factor) *Scorer {
	factors := make([]Factor, 0, len(s.factors)+1)
	replaced := false
	for _, existing := range s.factors {
		if existing.Name() == f.Name() {
			factors = append(factors, f)
			replaced = true
			continue
		}
		factors = append(factors, existing)
	}
	if !replaced {
		factors = append(factors, f)
	}
	return &Scorer{params: s.params, weights: s.weights, factors: factors}
}

// Weights devuelve la tabla de pesos en uso.
func (s *Scorer) Weights() Weights { return s.weights }

// Score puntúa una wallet en el instante asOf (unix seconds).
// ok=false (sin score, no score 0) si la wallet tiene menos de MinTrades trades
// o ningún trade con notional positivo.
func (s *Scorer) Score(profile domain.WalletProfile, asOf int64) (domain.WalletScore, bool) {
	if len(profile.Trades) < s.params.MinTrades {
		return domain.WalletScore{}, false
	}

	v := NewWalletView(profile, asOf)
	if len(v.Sizes) == 0 {
		return domain.WalletScore{}, false
	}

	factors := make(map[string]float64, len(s.factors))
	for _, f := range s.factors {
		factors[f.Name()] = f.Score(v)
	}

	return domain.WalletScore{
		WalletID:           profile.WalletID,
		DisplayName:        profile.DisplayName,
		CompositeScore:     Composite(factors, s.weights),
		Factors:            factors,
		TradeCount:         v.TradeCount(),
		UniqueMarketCount:  len(v.MarketIDs),
		MedianPositionSize: domain.Median(v.Sizes),
		TotalVolume:        v.TotalBought,
	}, true
}

// Composite es la combinación lineal Σ factor × peso.
// Un factor ausente cuenta como 0. Suma en orden de nombre para que el
// resultado sea idéntico entre ejecuciones.
func Composite(factors map[string]float64, weights Weights) float64 {
	var total float64
	for _, name := range slices.Sorted(maps.Keys(weights)) {
		total += factors[name] * weights[name]
	}
	return total
}
