package backtest

import (
	"math"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// TimeWeight es el decaimiento exponencial exp(-ln2/halfLife × horas).
// Vale 1 en t=0 y exactamente 0.5 en t=halfLife.
func TimeWeight(hoursElapsed, halfLifeHours float64) float64 {
	return math.Exp(-math.Ln2 / halfLifeHours * hoursElapsed)
}

// Conviction es el tamaño del trade relativo a la mediana de la wallet, acotado
// a [0, capMultiple].
func Conviction(notional, medianSize, capMultiple float64) float64 {
	return domain.Clamp(notional/math.Max(medianSize, 1), 0, capMultiple)
}

// Evaluate calcula el consenso ponderado de las posiciones activas de un mercado
// en el instante now. ok=false si no hay quórum, si nadie aporta peso, o si el
// lado ganador tiene menos de MinQuorum wallets distintas.
//
// Por posición: peso = (score/100) × convicción × decaimiento. Se ignoran las
// wallets sin score o por debajo del umbral de reputación, los trades futuros
// respecto a now, los lados distintos de BUY/SELL y las posiciones sin peso.
func Evaluate(
	positions []domain.MarketPosition,
	scores map[string]domain.WalletScore,
	p Params,
	now int64,
) (domain.ConsensusResult, bool) {
	p = p.withDefaults()
	if len(positions) < p.MinQuorum {
		return domain.ConsensusResult{}, false
	}

	var yesWeight, noWeight float64
	yesWallets := make(map[string]struct{})
	noWallets := make(map[string]struct{})

	for _, pos := range positions {
		score, ok := scores[pos.WalletID]
		if !ok || !score.Eligible(p.ReputationFloor) {
			continue
		}

		hours := float64(now-pos.Timestamp) / 3600
		if hours < 0 {
			continue // información del futuro
		}

		dir, ok := pos.Side.Direction()
		if !ok {
			continue
		}

		weighted := score.CompositeScore / 100 *
			Conviction(pos.Notional, score.MedianPositionSize, p.ConvictionCap) *
			TimeWeight(hours, p.HalfLifeHours)
		if weighted <= 0 {
			continue
		}

		if dir == domain.OutcomeYes {
			yesWeight += weighted
			yesWallets[pos.WalletID] = struct{}{}
		} else {
			noWeight += weighted
			noWallets[pos.WalletID] = struct{}{}
		}
	}

	total := yesWeight + noWeight
	if total == 0 {
		return domain.ConsensusResult{}, false
	}

	direction, agreeing := domain.OutcomeYes, len(yesWallets)
	if noWeight > yesWeight {
		direction, agreeing = domain.OutcomeNo, len(noWallets)
	}
	if agreeing < p.MinQuorum {
		return domain.ConsensusResult{}, false
	}

	return domain.ConsensusResult{
		Fraction:      math.Max(yesWeight, noWeight) / total,
		Direction:     direction,
		Agreeing:      agreeing,
		Participating: distinct(yesWallets, noWallets),
		YesWeight:     yesWeight,
		NoWeight:      noWeight,
	}, true
}

func distinct(a, b map[string]struct{}) int {
	n := len(a)
	for w := range b {
		if _, dup := a[w]; !dup {
			n++
		}
	}
	return n
}
