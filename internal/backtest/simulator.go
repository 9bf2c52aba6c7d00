package backtest

import (
	"log/slog"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// Simulator reproduce el timeline para un umbral de consenso.
// Sus inputs (scores, resoluciones) son de solo lectura; cada llamada a Run
// crea su propio estado de ventanas, así que varios Run pueden ir en paralelo.
type Simulator struct {
	params   Params
	scores   map[string]domain.WalletScore
	outcomes map[string]domain.Outcome
}

// NewSimulator crea un Simulator. outcomes mapea conditionId → resultado;
// un mercado ausente se considera no resuelto.
func NewSimulator(p Params, scores map[string]domain.WalletScore, outcomes map[string]domain.Outcome) *Simulator {
	return &Simulator{
		params:   p.withDefaults(),
		scores:   scores,
		outcomes: outcomes,
	}
}

// Params devuelve los parámetros efectivos.
func (s *Simulator) Params() Params { return s.params }

// thresholdRun es el estado mutable de un único run: ventana por mercado y
// claves (mercado, dirección) ya emitidas.
type thresholdRun struct {
	windows map[string][]domain.MarketPosition
	emitted map[string]struct{}
	signals []domain.Signal
}

// Run recorre el timeline completo y agrega las señales del umbral.
func (s *Simulator) Run(timeline Timeline, threshold float64) (domain.ThresholdResult, error) {
	if timeline.Len() == 0 {
		return domain.ThresholdResult{}, ErrEmptyTimeline
	}

	run := &thresholdRun{
		windows: make(map[string][]domain.MarketPosition),
		emitted: make(map[string]struct{}),
	}
	window := s.params.WindowSeconds()

	for ev := range timeline.All() {
		if !ev.HasMarket() {
			continue
		}

		active := prune(append(run.windows[ev.MarketID], ev), ev.Timestamp, window)
		run.windows[ev.MarketID] = active

		if len(active) < s.params.MinQuorum {
			continue
		}

		res, ok := Evaluate(active, s.scores, s.params, ev.Timestamp)
		if !ok || res.Fraction < threshold {
			continue
		}

		key := ev.MarketID + "_" + string(res.Direction)
		if _, dup := run.emitted[key]; dup {
			continue
		}
		run.emitted[key] = struct{}{}
		run.signals = append(run.signals, s.newSignal(ev, res))
	}

	result := aggregate(threshold, run.signals)
	slog.Debug("threshold run complete",
		"threshold", threshold,
		"signals", result.TotalSignals,
		"verified", result.VerifiedSignals,
		"markets", len(run.windows),
	)
	return result, nil
}

// prune conserva las posiciones dentro de la ventana respecto al evento más reciente.
func prune(positions []domain.MarketPosition, now, window int64) []domain.MarketPosition {
	kept := positions[:0]
	for _, p := range positions {
		if now-p.Timestamp < window {
			kept = append(kept, p)
		}
	}
	return kept
}

func (s *Simulator) newSignal(ev domain.MarketPosition, res domain.ConsensusResult) domain.Signal {
	sig := domain.Signal{
		Timestamp:  ev.Timestamp,
		MarketID:   ev.MarketID,
		Slug:       ev.Slug,
		Title:      ev.Title,
		Direction:  res.Direction,
		Consensus:  res.Fraction,
		Agreeing:   res.Agreeing,
		Total:      res.Participating,
		EntryPrice: ev.Price,
	}
	if actual, ok := s.outcomes[ev.MarketID]; ok {
		correct := res.Direction == actual
		sig.ActualOutcome = actual
		sig.Correct = &correct
	}
	return sig
}

// aggregate calcula las métricas de un umbral. La precisión es 0 (no NaN) si
// no hay señales verificadas; las medias incluyen las no verificadas.
func aggregate(threshold float64, signals []domain.Signal) domain.ThresholdResult {
	res := domain.ThresholdResult{
		Threshold:    threshold,
		TotalSignals: len(signals),
		Signals:      signals,
	}
	if len(signals) == 0 {
		return res
	}

	var sumConsensus, sumAgreeing float64
	for _, sig := range signals {
		sumConsensus += sig.Consensus
		sumAgreeing += float64(sig.Agreeing)
		if sig.Verified() {
			res.VerifiedSignals++
			if *sig.Correct {
				res.CorrectSignals++
			}
		}
	}
	if res.VerifiedSignals > 0 {
		res.Accuracy = float64(res.CorrectSignals) / float64(res.VerifiedSignals)
	}
	res.MeanConsensus = sumConsensus / float64(len(signals))
	res.MeanAgreeing = sumAgreeing / float64(len(signals))
	return res
}
