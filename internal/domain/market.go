package domain

import (
	"errors"
	"unicode/utf8"
)

// ErrNotFound indica que un artefacto no existe en el almacenamiento.
var ErrNotFound = errors.New("not found")

// Outcome es la dirección de un mercado binario.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// Market representa un mercado de predicción binario descubierto en Gamma.
type Market struct {
	ConditionID   string
	Question      string
	Slug          string
	Volume        float64
	Active        bool
	Closed        bool
	OutcomePrices []float64 // precios finales [YES, NO] si el mercado cerró
}

// Resolution deriva el resultado de un mercado cerrado a partir de sus precios
// finales: YES si el primer precio supera 0.5. ok=false si no está resuelto.
func (m Market) Resolution() (Outcome, bool) {
	if !m.Closed || len(m.OutcomePrices) < 2 {
		return "", false
	}
	if m.OutcomePrices[0] > 0.5 {
		return OutcomeYes, true
	}
	return OutcomeNo, true
}

// Resolutions construye el lookup conditionId → resultado para los mercados resueltos.
// Los mercados sin resolución no aparecen (ausencia = no resuelto).
func Resolutions(markets []Market) map[string]Outcome {
	out := make(map[string]Outcome, len(markets))
	for _, m := range markets {
		if o, ok := m.Resolution(); ok && m.ConditionID != "" {
			out[m.ConditionID] = o
		}
	}
	return out
}

// TruncateQuestion devuelve la pregunta del mercado truncada a maxLen caracteres.
// Si la pregunta está vacía usa los primeros caracteres del conditionID como fallback.
func TruncateQuestion(question, conditionID string, maxLen int) string {
	q := question
	if q == "" {
		q = Truncate(conditionID, 23)
	}
	return Truncate(q, maxLen)
}

// Truncate corta s a maxLen runas como máximo, terminando en "..." si recorta.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}
