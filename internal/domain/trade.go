package domain

import (
	"bytes"
	"errors"
	"math"
	"strconv"
)

// ErrInvalidRecord indica un trade raw inutilizable (sin timestamp ni mercado).
// El caller lo descarta y lo cuenta; nunca aborta el batch.
var ErrInvalidRecord = errors.New("invalid trade record")

// Side es el lado de un trade tal como lo devuelve la API.
// Valores distintos de BUY/SELL se preservan pero no votan en el consenso.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Direction devuelve la dirección de mercado que expresa el lado:
// BUY → YES, SELL → NO. ok=false para cualquier otro valor.
func (s Side) Direction() (Outcome, bool) {
	switch s {
	case SideBuy:
		return OutcomeYes, true
	case SideSell:
		return OutcomeNo, true
	}
	return "", false
}

// Number es un numérico tolerante para payloads no confiables.
// Acepta números JSON, strings numéricos o null; cualquier otra cosa vale 0.
type Number float64

// UnmarshalJSON nunca devuelve error: lo que no se pueda parsear queda en 0.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number(parseNumber(b))
	return nil
}

// Float64 devuelve el valor como float64.
func (n Number) Float64() float64 { return float64(n) }

// NonNegative devuelve el valor con suelo en 0.
func (n Number) NonNegative() float64 { return math.Max(0, float64(n)) }

func parseNumber(b []byte) float64 {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0
	}
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return 0
		}
		s = unq
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// RawTrade es un registro de /activity de la Data API, sin validar.
type RawTrade struct {
	ProxyWallet     string `json:"proxyWallet,omitempty"`
	Type            string `json:"type,omitempty"`
	ConditionID     string `json:"conditionId"`
	Asset           string `json:"asset,omitempty"`
	Side            string `json:"side"`
	Price           Number `json:"price"`
	Size            Number `json:"size"`
	USDCSize        Number `json:"usdcSize"`
	Timestamp       Number `json:"timestamp"`
	Outcome         string `json:"outcome"`
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	TransactionHash string `json:"transactionHash,omitempty"`
}

// NormalizedTrade es la tupla canónica de un trade. Inmutable una vez creada.
type NormalizedTrade struct {
	WalletID  string
	MarketID  string // conditionId
	Side      Side
	Price     float64
	Size      float64
	Notional  float64 // USDC
	Timestamp int64   // unix seconds
	Outcome   string
	Slug      string
	Title     string
}

// HasMarket indica si el trade puede participar en el consenso.
func (t NormalizedTrade) HasMarket() bool { return t.MarketID != "" }

// Normalize convierte un RawTrade en NormalizedTrade.
// Los numéricos ausentes, no parseables o negativos valen 0. Solo falla si faltan a la vez
// el timestamp y el mercado. Timestamps en milisegundos se pasan a segundos.
func Normalize(walletID string, raw RawTrade) (NormalizedTrade, error) {
	ts := int64(raw.Timestamp.Float64())
	if ts > 1e12 {
		ts /= 1000
	}
	if ts <= 0 && raw.ConditionID == "" {
		return NormalizedTrade{}, ErrInvalidRecord
	}
	if ts < 0 {
		ts = 0
	}

	return NormalizedTrade{
		WalletID:  walletID,
		MarketID:  raw.ConditionID,
		Side:      Side(raw.Side),
		Price:     raw.Price.NonNegative(),
		Size:      raw.Size.NonNegative(),
		Notional:  raw.USDCSize.NonNegative(),
		Timestamp: ts,
		Outcome:   raw.Outcome,
		Slug:      raw.Slug,
		Title:     raw.Title,
	}, nil
}

// NormalizeAll normaliza un lote y devuelve cuántos registros se descartaron.
func NormalizeAll(walletID string, raws []RawTrade) ([]NormalizedTrade, int) {
	out := make([]NormalizedTrade, 0, len(raws))
	dropped := 0
	for _, r := range raws {
		t, err := Normalize(walletID, r)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, t)
	}
	return out, dropped
}
