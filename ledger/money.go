package ledger

import "github.com/shopspring/decimal"

// Monetary amounts are decimals constrained to two fraction digits, the
// currency minor unit. Keeping amounts exact at that precision makes the
// zero-sum leg invariant exact rather than epsilon-tolerant.

// ValidAmount reports whether the amount fits in the currency minor unit,
// i.e. carries at most two fraction digits.
func ValidAmount(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// FormatAmount renders an amount with exactly two fraction digits using
// round-half-even, so repeated re-aggregation of formatted values does not
// drift.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixedBank(2)
}

// FormatAmountPtr renders an optional amount; nil stays nil.
func FormatAmountPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixedBank(2)
	return &s
}

// Percent returns part/whole*100 rounded half-even to two fraction digits,
// or nil when whole is zero. Callers receive nil instead of a division by
// zero, ever.
func Percent(part, whole decimal.Decimal) *decimal.Decimal {
	if whole.IsZero() {
		return nil
	}
	p := part.Div(whole).Mul(decimal.NewFromInt(100)).RoundBank(2)
	return &p
}
