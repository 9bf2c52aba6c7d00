// Package scoring convierte el historial de trades de una wallet en un score
// de reputación de 12 factores con pesos fijos.
package scoring

import (
	"time"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// Weights es la tabla factor → peso. Los pesos canónicos suman 1.0.
type Weights map[string]float64

// DefaultWeights devuelve los pesos calibrados a mano del modelo original.
func DefaultWeights() Weights {
	return Weights{
		domain.FactorWinRate:        0.15,
		domain.FactorROI:            0.15,
		domain.FactorConsistency:    0.10,
		domain.FactorVolume:         0.05,
		domain.FactorExperience:     0.05,
		domain.FactorTimingEdge:     0.10,
		domain.FactorSpecialization: 0.05,
		domain.FactorRiskStability:  0.10,
		domain.FactorExitQuality:    0.10,
		domain.FactorBotScoreInv:    0.05,
		domain.FactorRecency:        0.05,
		domain.FactorCapacity:       0.05,
	}
}

// Sum devuelve la suma de los pesos.
func (w Weights) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// Params contiene los caps y constantes de cada factor.
type Params struct {
	MinTrades int // wallets con menos trades no se puntúan

	ExperienceMarkets  float64       // mercados únicos que saturan experience
	VolumeSaturation   float64       // USDC comprados que saturan volume ($1M)
	ROISpanPct         float64       // ROI% que mapea a 0 / 100 (±50%)
	ConsistencyPenalty float64       // puntos restados por unidad de stdev
	TimingScale        float64       // multiplicador del retorno medio first→last
	SpecializationCap  float64       // trades por slug que saturan specialization
	RiskPenalty        float64       // puntos restados por unidad de CV de tamaños
	BotScale           float64       // multiplicador del CV de los gaps temporales
	RecencyWindow      time.Duration // ventana de actividad reciente
	RecencyTarget      float64       // trades recientes que saturan recency
	CapacityScale      float64       // multiplicador del ratio large/small
	CapacityMinSizes   int           // se necesitan MÁS de estos trades con tamaño
	CapacityMinPairs   int           // y MÁS de estos pares (tamaño, retorno)
}

// DefaultParams devuelve las constantes de referencia.
func DefaultParams() Params {
	return Params{
		MinTrades:          10,
		ExperienceMarkets:  50,
		VolumeSaturation:   1_000_000,
		ROISpanPct:         50,
		ConsistencyPenalty: 200,
		TimingScale:        200,
		SpecializationCap:  20,
		RiskPenalty:        50,
		BotScale:           50,
		RecencyWindow:      30 * 24 * time.Hour,
		RecencyTarget:      20,
		CapacityScale:      50,
		CapacityMinSizes:   10,
		CapacityMinPairs:   4,
	}
}

// withDefaults rellena los campos a cero con los valores de referencia.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.MinTrades <= 0 {
		p.MinTrades = d.MinTrades
	}
	if p.ExperienceMarkets <= 0 {
		p.ExperienceMarkets = d.ExperienceMarkets
	}
	if p.VolumeSaturation <= 1 {
		p.VolumeSaturation = d.VolumeSaturation
	}
	if p.ROISpanPct <= 0 {
		p.ROISpanPct = d.ROISpanPct
	}
	if p.ConsistencyPenalty <= 0 {
		p.ConsistencyPenalty = d.ConsistencyPenalty
	}
	if p.TimingScale <= 0 {
		p.TimingScale = d.TimingScale
	}
	if p.SpecializationCap <= 0 {
		p.SpecializationCap = d.SpecializationCap
	}
	if p.RiskPenalty <= 0 {
		p.RiskPenalty = d.RiskPenalty
	}
	if p.BotScale <= 0 {
		p.BotScale = d.BotScale
	}
	if p.RecencyWindow <= 0 {
		p.RecencyWindow = d.RecencyWindow
	}
	if p.RecencyTarget <= 0 {
		p.RecencyTarget = d.RecencyTarget
	}
	if p.CapacityScale <= 0 {
		p.CapacityScale = d.CapacityScale
	}
	if p.CapacityMinSizes <= 0 {
		p.CapacityMinSizes = d.CapacityMinSizes
	}
	if p.CapacityMinPairs <= 0 {
		p.CapacityMinPairs = d.CapacityMinPairs
	}
	return p
}
