package domain

import "time"

// MarketPosition es la vista de replay de un trade dentro de la ventana deslizante.
// La wallet de origen viaja en el trade normalizado.
type MarketPosition struct {
	NormalizedTrade
}

// ConsensusResult es el acuerdo ponderado de la cesta en un mercado y un instante.
// Se recalcula en cada paso del replay, nunca se guarda.
type ConsensusResult struct {
	Fraction      float64 // max(yes, no) / total, en (0, 1]
	Direction     Outcome
	Agreeing      int // wallets distintas en el lado ganador
	Participating int // wallets distintas que aportaron peso
	YesWeight     float64
	NoWeight      float64
}

// Signal es un consenso emitido, deduplicado por (mercado, dirección) en un run.
type Signal struct {
	Timestamp     int64
	MarketID      string
	Slug          string
	Title         string
	Direction     Outcome
	Consensus     float64
	Agreeing      int
	Total         int
	EntryPrice    float64
	ActualOutcome Outcome // vacío si el mercado no está resuelto
	Correct       *bool   // nil = no verificable
}

// Verified indica si la señal se pudo contrastar con la resolución.
func (s Signal) Verified() bool { return s.Correct != nil }

// ThresholdResult agrega las señales de un run de un umbral.
type ThresholdResult struct {
	Threshold       float64
	TotalSignals    int
	VerifiedSignals int
	CorrectSignals  int
	Accuracy        float64 // correct / verified, 0 si no hay verificadas
	MeanConsensus   float64
	MeanAgreeing    float64
	Signals         []Signal
}

// BacktestReport es el resultado completo de un backtest multi-umbral.
type BacktestReport struct {
	RunID          string
	RunAt          time.Time
	WalletsScored  int
	EligibleCount  int
	TimelineTrades int
	Results        []ThresholdResult // en el orden de los umbrales configurados
	Best           *ThresholdResult  // nil si ningún umbral tiene verificadas suficientes
}
