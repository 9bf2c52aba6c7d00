package backtest

import (
	"iter"
	"sort"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// Timeline es la secuencia global de trades de todas las wallets, ordenada por
// timestamp ascendente. Es inmutable: se puede recorrer cuantas veces haga falta
// y cada recorrido produce la misma secuencia.
type Timeline struct {
	events []domain.MarketPosition
}

// BuildTimeline mezcla los trades de todas las wallets. El orden es estable
// respecto al de entrada en empates. Los trades sin timestamp se descartan.
func BuildTimeline(profiles []domain.WalletProfile) Timeline {
	n := 0
	for _, p := range profiles {
		n += len(p.Trades)
	}

	events := make([]domain.MarketPosition, 0, n)
	for _, p := range profiles {
		for _, t := range p.Trades {
			if t.Timestamp <= 0 {
				continue
			}
			if t.WalletID == "" {
				t.WalletID = p.WalletID
			}
			events = append(events, domain.MarketPosition{NormalizedTrade: t})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})
	return Timeline{events: events}
}

// Len devuelve el número de eventos.
func (t Timeline) Len() int { return len(t.events) }

// All recorre los eventos en orden cronológico.
func (t Timeline) All() iter.Seq[domain.MarketPosition] {
	return func(yield func(domain.MarketPosition) bool) {
		for _, e := range t.events {
			if !yield(e) {
				return
			}
		}
	}
}
