package polymarket

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/alejandrodnm/polybasket/internal/domain"
)

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaMarket es un item de GET /markets de Gamma.
// Gamma devuelve algunos campos numéricos como strings JSON.
type gammaMarket struct {
	ConditionID   string        `json:"conditionId"`
	Question      string        `json:"question"`
	Slug          string        `json:"slug"`
	Volume        domain.Number `json:"volume"`
	VolumeNum     domain.Number `json:"volumeNum"`
	Active        bool          `json:"active"`
	Closed        bool          `json:"closed"`
	OutcomePrices priceList     `json:"outcomePrices"`
}

// priceList acepta outcomePrices como array JSON o como string con un array
// dentro ("[\"1\", \"0\"]"). Un valor ilegible queda vacío.
type priceList []float64

func (p *priceList) UnmarshalJSON(b []byte) error {
	*p = nil
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return nil
		}
		b = []byte(s)
	}
	var nums []domain.Number
	if err := json.Unmarshal(b, &nums); err != nil {
		return nil
	}
	out := make(priceList, len(nums))
	for i, n := range nums {
		out[i] = n.Float64()
	}
	*p = out
	return nil
}

// --- Data API ---

// holderEntry es un holder de GET /holders. Los nombres de campo varían entre
// versiones de la API.
type holderEntry struct {
	ProxyWallet string        `json:"proxyWallet"`
	Address     string        `json:"address"`
	User        string        `json:"user"`
	Name        string        `json:"name"`
	Pseudonym   string        `json:"pseudonym"`
	Amount      domain.Number `json:"amount"`
	Value       domain.Number `json:"value"`
}

// holderGroup es la forma anidada de /holders: un grupo por token del mercado.
// La forma plana trae los holderEntry directamente en el array raíz.
type holderGroup struct {
	Token   string        `json:"token"`
	Holders []holderEntry `json:"holders"`
	holderEntry
}
