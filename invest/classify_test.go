package invest

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestClassifyCashflow(t *testing.T) {
	tests := []struct {
		name string
		txn  Transaction
		want Cashflow
	}{
		{
			name: "type tag deposit",
			txn:  Transaction{Type: "deposit", Amount: amt("500.00")},
			want: CashflowDeposit,
		},
		{
			name: "description keyword withdrawal",
			txn:  Transaction{Description: "Monthly withdrawal to checking", Amount: amt("-200.00")},
			want: CashflowWithdrawal,
		},
		{
			name: "german deposit keyword",
			txn:  Transaction{Description: "Einzahlung Sparplan", Amount: amt("100.00")},
			want: CashflowDeposit,
		},
		{
			name: "dutch withdrawal keyword",
			txn:  Transaction{Description: "Opname naar betaalrekening", Amount: amt("-50.00")},
			want: CashflowWithdrawal,
		},
		{
			name: "holding reference is never a cashflow",
			txn:  Transaction{Type: "deposit", HoldingName: "World ETF", Amount: amt("500.00")},
			want: CashflowNone,
		},
		{
			name: "isin reference is never a cashflow",
			txn:  Transaction{Description: "deposit", ISIN: "IE00B4L5Y983", Amount: amt("500.00")},
			want: CashflowNone,
		},
		{
			name: "quantity reference is never a cashflow",
			txn:  Transaction{Description: "inleg", Quantity: amt("2.5"), Amount: amt("500.00")},
			want: CashflowNone,
		},
		{
			name: "transfer falls back to sign, positive",
			txn:  Transaction{Description: "Internal transfer", Amount: amt("300.00")},
			want: CashflowDeposit,
		},
		{
			name: "transfer falls back to sign, negative",
			txn:  Transaction{Description: "Overboeking", Amount: amt("-300.00")},
			want: CashflowWithdrawal,
		},
		{
			name: "transfer with zero amount stays unclassified",
			txn:  Transaction{Description: "Umbuchung", Amount: decimal.Zero},
			want: CashflowNone,
		},
		{
			name: "dividend is market movement",
			txn:  Transaction{Type: "dividend", Description: "Quarterly payout", Amount: amt("12.34")},
			want: CashflowNone,
		},
		{
			name: "empty transaction",
			txn:  Transaction{},
			want: CashflowNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCashflow(tt.txn))
		})
	}
}
