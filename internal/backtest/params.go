// Package backtest reproduce en orden cronológico los trades de la cesta de
// wallets, detecta consensos ponderados por reputación y decaimiento temporal,
// y mide cuántos aciertan la resolución del mercado.
package backtest

import "errors"

// ErrEmptyTimeline se devuelve si no hay ningún trade que reproducir.
var ErrEmptyTimeline = errors.New("backtest: empty timeline")

// Params son los parámetros ajustables del consenso.
type Params struct {
	MinQuorum       int     // wallets distintas mínimas (pre y post check)
	HalfLifeHours   float64 // vida media del peso de un trade
	ReputationFloor float64 // score mínimo para entrar en la cesta; 0 = todas, <0 = 60
	ConvictionCap   float64 // tope de convicción en múltiplos de la mediana
	WindowHalfLives float64 // ancho de la ventana deslizante en vidas medias
}

// DefaultParams devuelve los valores de referencia.
func DefaultParams() Params {
	return Params{
		MinQuorum:       3,
		HalfLifeHours:   24,
		ReputationFloor: 60,
		ConvictionCap:   3.0,
		WindowHalfLives: 4,
	}
}

// DefaultThresholds es el barrido de referencia 0.60…0.90 en pasos de 0.05.
func DefaultThresholds() []float64 {
	return []float64{0.60, 0.65, 0.70, 0.75, 0.80, 0.85, 0.90}
}

// WindowSeconds devuelve el ancho de la ventana deslizante en segundos.
func (p Params) WindowSeconds() int64 {
	return int64(p.HalfLifeHours * p.WindowHalfLives * 3600)
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.MinQuorum <= 0 {
		p.MinQuorum = d.MinQuorum
	}
	if p.HalfLifeHours <= 0 {
		p.HalfLifeHours = d.HalfLifeHours
	}
	if p.ReputationFloor < 0 {
		p.ReputationFloor = d.ReputationFloor
	}
	if p.ConvictionCap <= 0 {
		p.ConvictionCap = d.ConvictionCap
	}
	if p.WindowHalfLives <= 0 {
		p.WindowHalfLives = d.WindowHalfLives
	}
	return p
}
