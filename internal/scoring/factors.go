package scoring

import (
	"math"
	"sort"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// neutral es el valor por defecto de un factor sin datos suficientes.
const neutral = 50.0

// Factor calcula un sub-score 0-100 a partir de la vista de una wallet.
// Cada factor es intercambiable sin tocar la agregación.
type Factor interface {
	Name() string
	Score(v *WalletView) float64
}

// FactorFunc adapta una función a Factor.
type FactorFunc struct {
	FactorName string
	Fn         func(v *WalletView) float64
}

func (f FactorFunc) Name() string                { return f.FactorName }
func (f FactorFunc) Score(v *WalletView) float64 { return f.Fn(v) }

// DefaultFactors devuelve los 12 factores de referencia en orden canónico.
func DefaultFactors(p Params) []Factor {
	p = p.withDefaults()
	winRate := FactorFunc{domain.FactorWinRate, WinRate}
	return []Factor{
		winRate,
		FactorFunc{domain.FactorROI, func(v *WalletView) float64 { return ROI(v, p.ROISpanPct) }},
		FactorFunc{domain.FactorConsistency, func(v *WalletView) float64 { return Consistency(v, p.ConsistencyPenalty) }},
		FactorFunc{domain.FactorVolume, func(v *WalletView) float64 { return Volume(v, p.VolumeSaturation) }},
		FactorFunc{domain.FactorExperience, func(v *WalletView) float64 { return Experience(v, p.ExperienceMarkets) }},
		FactorFunc{domain.FactorTimingEdge, func(v *WalletView) float64 { return TimingEdge(v, p.TimingScale) }},
		FactorFunc{domain.FactorSpecialization, func(v *WalletView) float64 { return Specialization(v, p.SpecializationCap) }},
		FactorFunc{domain.FactorRiskStability, func(v *WalletView) float64 { return RiskStability(v, p.RiskPenalty) }},
		ExitQualityAlias(winRate),
		FactorFunc{domain.FactorBotScoreInv, func(v *WalletView) float64 { return BotScoreInverse(v, p.BotScale) }},
		FactorFunc{domain.FactorRecency, func(v *WalletView) float64 {
			return Recency(v, int64(p.RecencyWindow.Seconds()), p.RecencyTarget)
		}},
		CapacityFactor{Scale: p.CapacityScale, MinSizes: p.CapacityMinSizes, MinPairs: p.CapacityMinPairs},
	}
}

// WinRate: % de posiciones cerradas con precio medio de venta > precio medio de compra.
// Solo importan las medias, así que es invariante al orden de los trades.
func WinRate(v *WalletView) float64 {
	if v.ClosedCount == 0 {
		return neutral
	}
	return float64(v.ClosedWins) / float64(v.ClosedCount) * 100
}

// ExitQualityAlias publica exit_quality como copia exacta de otro factor (win_rate).
// Acoplamiento explícito hasta que exista una métrica propia de timing de salida.
func ExitQualityAlias(of Factor) Factor {
	return FactorFunc{domain.FactorExitQuality, of.Score}
}

// ROI mapea el ROI% de forma afín: -span → 0, 0 → 50, +span → 100.
// Sin capital invertido el factor vale 0.
func ROI(v *WalletView, spanPct float64) float64 {
	if v.TotalBought <= 0 {
		return 0
	}
	roiPct := (v.TotalSold - v.TotalBought) / v.TotalBought * 100
	return domain.Clamp(50+roiPct*50/spanPct, 0, 100)
}

// Consistency penaliza la dispersión de los retornos por posición.
func Consistency(v *WalletView, penalty float64) float64 {
	if len(v.ClosedReturns) == 0 {
		return neutral
	}
	return math.Max(0, 100-domain.StdDev(v.ClosedReturns)*penalty)
}

// Volume es logarítmico sobre lo comprado: saturation USDC → 100.
func Volume(v *WalletView, saturation float64) float64 {
	return math.Min(math.Log10(math.Max(v.TotalBought, 1))/math.Log10(saturation)*100, 100)
}

// Experience crece con los mercados únicos hasta markets.
func Experience(v *WalletView, markets float64) float64 {
	return math.Min(float64(len(v.MarketIDs))/markets*100, 100)
}

// TimingEdge promedia el retorno primer→último precio de cada posición con ≥2
// trades. Solo considera trades hasta el instante de evaluación.
func TimingEdge(v *WalletView, scale float64) float64 {
	var returns []float64
	for _, id := range v.MarketIDs {
		trades := sortedByTime(v.Positions[id])
		if v.AsOf > 0 {
			trades = tradesUntil(trades, v.AsOf)
		}
		if len(trades) < 2 {
			continue
		}
		first, last := trades[0].Price, trades[len(trades)-1].Price
		if first > 0 {
			returns = append(returns, (last-first)/first)
		}
	}
	if len(returns) == 0 {
		return neutral
	}
	return domain.Clamp(domain.Mean(returns)*scale+50, 0, 100)
}

// Specialization mide concentración (trades por slug), no diversificación.
func Specialization(v *WalletView, capPerSlug float64) float64 {
	slugs := make(map[string]struct{})
	for _, t := range v.Profile.Trades {
		if t.Slug != "" {
			slugs[t.Slug] = struct{}{}
		}
	}
	if len(slugs) == 0 {
		return neutral
	}
	concentration := float64(v.TradeCount()) / float64(len(slugs))
	return math.Min(concentration/capPerSlug*100, 100)
}

// RiskStability penaliza la variabilidad del tamaño de las posiciones.
func RiskStability(v *WalletView, penalty float64) float64 {
	if len(v.Sizes) <= 2 {
		return neutral
	}
	return math.Max(0, 100-domain.CoefficientOfVariation(v.Sizes)*penalty)
}

// BotScoreInverse: más irregularidad en los intervalos entre trades = más humano.
func BotScoreInverse(v *WalletView, scale float64) float64 {
	var ts []float64
	for _, t := range v.Profile.Trades {
		if t.Timestamp > 0 {
			ts = append(ts, float64(t.Timestamp))
		}
	}
	if len(ts) <= 2 {
		return neutral
	}
	sort.Float64s(ts)
	gaps := make([]float64, 0, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		gaps = append(gaps, ts[i]-ts[i-1])
	}
	return math.Min(domain.CoefficientOfVariation(gaps)*scale, 100)
}

// Recency cuenta los trades dentro de la ventana previa al instante de evaluación.
func Recency(v *WalletView, windowSeconds int64, target float64) float64 {
	cutoff := v.AsOf - windowSeconds
	n := 0
	for _, t := range v.Profile.Trades {
		if t.Timestamp > cutoff {
			n++
		}
	}
	return math.Min(float64(n)/target*100, 100)
}

// CapacityFactor compara el retorno de la mitad grande frente a la mitad pequeña:
// si los trades grandes rinden peor, la capacidad de la wallet es limitada.
// Empareja tamaños y retornos por posición por índice, igual de aproximado que
// el heurístico de referencia.
type CapacityFactor struct {
	Scale    float64
	MinSizes int
	MinPairs int
}

func (CapacityFactor) Name() string { return domain.FactorCapacity }

func (c CapacityFactor) Score(v *WalletView) float64 {
	if len(v.Sizes) <= c.MinSizes || len(v.ClosedReturns) == 0 {
		return neutral
	}
	n := min(len(v.Sizes), len(v.ClosedReturns))
	if n <= c.MinPairs {
		return neutral
	}

	type pair struct{ size, ret float64 }
	pairs := make([]pair, n)
	for i := 0; i < n; i++ {
		pairs[i] = pair{v.Sizes[i], v.ClosedReturns[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].size < pairs[j].size })

	half := n / 2
	var small, large []float64
	for i, p := range pairs {
		if i < half {
			small = append(small, p.ret)
		} else {
			large = append(large, p.ret)
		}
	}
	smallAvg := domain.Mean(small)
	if smallAvg <= 0 {
		return neutral
	}
	return domain.Clamp(domain.Mean(large)/smallAvg*c.Scale, 0, 100)
}

func tradesUntil(sorted []domain.NormalizedTrade, asOf int64) []domain.NormalizedTrade {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i].Timestamp > asOf })
	return sorted[:i]
}
