package invest

import "strings"

// Cashflow is the closed classification of an investment transaction.
// Deposits and withdrawals are external money movements; everything else is
// market movement and stays unclassified.
type Cashflow int

const (
	CashflowNone Cashflow = iota
	CashflowDeposit
	CashflowWithdrawal
)

// String returns the string representation of the cashflow class.
func (c Cashflow) String() string {
	switch c {
	case CashflowDeposit:
		return "deposit"
	case CashflowWithdrawal:
		return "withdrawal"
	default:
		return "none"
	}
}

// Keyword tables for the locales the import formats cover.
var (
	depositKeywords = []string{
		"deposit", "contribution", "inpayment",
		"einzahlung", "storting", "inleg",
	}
	withdrawalKeywords = []string{
		"withdrawal", "withdraw", "redemption",
		"auszahlung", "opname", "onttrekking",
	}
	transferKeywords = []string{"transfer", "overboeking", "umbuchung"}
)

// ClassifyCashflow tags an investment transaction as deposit, withdrawal or
// none. Any entry referencing a holding is market activity and is never a
// cashflow. Otherwise the broker's type tag and the description are matched
// against locale keyword tables; as a last resort, entries that mention a
// transfer are classified by the sign of their amount.
func ClassifyCashflow(txn Transaction) Cashflow {
	if txn.HasHoldingReference() {
		return CashflowNone
	}

	haystack := strings.ToLower(txn.Type + " " + txn.Description)
	for _, kw := range depositKeywords {
		if strings.Contains(haystack, kw) {
			return CashflowDeposit
		}
	}
	for _, kw := range withdrawalKeywords {
		if strings.Contains(haystack, kw) {
			return CashflowWithdrawal
		}
	}

	for _, kw := range transferKeywords {
		if strings.Contains(haystack, kw) {
			if txn.Amount.IsNegative() {
				return CashflowWithdrawal
			}
			if txn.Amount.IsPositive() {
				return CashflowDeposit
			}
			return CashflowNone
		}
	}
	return CashflowNone
}
