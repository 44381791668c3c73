package report

import (
	"github.com/shopspring/decimal"

	"finledger/ledger"
)

// Heatmap cross-tabulates category totals by category × year for
// seasonality analysis. Cell intensity is scaled against the single maximum
// across the whole matrix, computed once per build, so relative scaling is
// stable between cells.
type Heatmap struct {
	Flow  Flow
	Years []int
	Rows  []HeatmapRow
	Max   decimal.Decimal // largest absolute cell value in the matrix
}

// HeatmapRow is one category's totals across the covered years. The sum of
// Totals equals the category's lifetime total for the same year range.
type HeatmapRow struct {
	CategoryID  string
	Name        string
	Totals      []decimal.Decimal // aligned with Heatmap.Years
	Total       decimal.Decimal
	Intensities []float64 // 0..1, scaled by Heatmap.Max
}

// BuildHeatmap builds the category × year matrix for a flow over a fixed
// ordered category set: categories of the matching type in creation order,
// with an Uncategorized row last when present.
func BuildHeatmap(l Ledger, years []int, flow Flow, f Filters) *Heatmap {
	categories := categoryIndex(l)

	wantType := ledger.CategoryIncome
	if flow == FlowExpense {
		wantType = ledger.CategoryExpense
	}

	h := &Heatmap{Flow: flow, Years: years, Max: decimal.Zero}

	rowIndex := make(map[string]int)
	for _, c := range l.Categories() {
		if c.Type != wantType {
			continue
		}
		rowIndex[c.ID] = len(h.Rows)
		h.Rows = append(h.Rows, HeatmapRow{
			CategoryID: c.ID,
			Name:       c.Name,
			Totals:     zeroTotals(len(years)),
			Total:      decimal.Zero,
		})
	}
	// Uncategorized row is created lazily, and always sorts last.
	uncategorized := -1

	yearIndex := make(map[int]int, len(years))
	for i, y := range years {
		yearIndex[y] = i
	}

	for _, txn := range l.Transactions() {
		col, ok := yearIndex[txn.OccurredAt.Year()]
		if !ok || !f.Match(txn) {
			continue
		}
		amount, ok := flowAmount(txn, flow, categories)
		if !ok || amount.IsZero() {
			continue
		}

		var row int
		if txn.CategoryID == "" {
			if uncategorized < 0 {
				uncategorized = len(h.Rows)
				h.Rows = append(h.Rows, HeatmapRow{
					Name:   UncategorizedBucket,
					Totals: zeroTotals(len(years)),
					Total:  decimal.Zero,
				})
			}
			row = uncategorized
		} else {
			row, ok = rowIndex[txn.CategoryID]
			if !ok {
				continue
			}
		}

		h.Rows[row].Totals[col] = h.Rows[row].Totals[col].Add(amount)
		h.Rows[row].Total = h.Rows[row].Total.Add(amount)
	}

	for _, row := range h.Rows {
		for _, v := range row.Totals {
			if v.Abs().GreaterThan(h.Max) {
				h.Max = v.Abs()
			}
		}
	}

	for i := range h.Rows {
		h.Rows[i].Intensities = make([]float64, len(years))
		if h.Max.IsZero() {
			continue
		}
		for j, v := range h.Rows[i].Totals {
			intensity, _ := v.Abs().Div(h.Max).Float64()
			h.Rows[i].Intensities[j] = intensity
		}
	}
	return h
}

func zeroTotals(n int) []decimal.Decimal {
	totals := make([]decimal.Decimal, n)
	for i := range totals {
		totals[i] = decimal.Zero
	}
	return totals
}
