package invest

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// PayloadKind tags the shape of a parsed investment export.
type PayloadKind int

const (
	PayloadEmpty PayloadKind = iota
	PayloadHoldings
	PayloadRows
)

// ParsedPayload is the tagged union of the shapes investment exports arrive
// in: a structured holdings list, a raw row grid, or nothing. Payloads are
// validated here, at the boundary, before anything reaches the performance
// engine.
type ParsedPayload struct {
	Kind     PayloadKind
	Holdings []Holding
	Rows     [][]string
}

type rawPayload struct {
	Holdings []rawHolding `json:"holdings"`
	Rows     [][]string   `json:"rows"`
}

type rawHolding struct {
	Name     string `json:"name"`
	ISIN     string `json:"isin"`
	Quantity string `json:"quantity"`
	Value    string `json:"value"`
}

// ParsePayload validates a raw investment export. Unknown shapes are
// rejected; a payload carrying both holdings and rows is ambiguous and
// rejected too.
func ParsePayload(raw []byte) (*ParsedPayload, error) {
	if len(raw) == 0 {
		return &ParsedPayload{Kind: PayloadEmpty}, nil
	}

	var parsed rawPayload
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("malformed investment payload: %w", err)
	}

	switch {
	case len(parsed.Holdings) > 0 && len(parsed.Rows) > 0:
		return nil, fmt.Errorf("ambiguous investment payload: both holdings and rows present")

	case len(parsed.Holdings) > 0:
		holdings := make([]Holding, 0, len(parsed.Holdings))
		for i, h := range parsed.Holdings {
			if h.Name == "" {
				return nil, fmt.Errorf("holding %d: name is required", i)
			}
			quantity, err := parseOptionalDecimal(h.Quantity)
			if err != nil {
				return nil, fmt.Errorf("holding %q: invalid quantity: %w", h.Name, err)
			}
			value, err := parseOptionalDecimal(h.Value)
			if err != nil {
				return nil, fmt.Errorf("holding %q: invalid value: %w", h.Name, err)
			}
			holdings = append(holdings, Holding{
				Name:     h.Name,
				ISIN:     h.ISIN,
				Quantity: quantity,
				Value:    value,
			})
		}
		return &ParsedPayload{Kind: PayloadHoldings, Holdings: holdings}, nil

	case len(parsed.Rows) > 0:
		return &ParsedPayload{Kind: PayloadRows, Rows: parsed.Rows}, nil

	default:
		return &ParsedPayload{Kind: PayloadEmpty}, nil
	}
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
