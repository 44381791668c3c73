package report

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"finledger/ledger"
)

// subscriptionDayWindow is how many days an occurrence may drift from the
// subscription's expected day of month and still match.
const subscriptionDayWindow = 3

// SubscriptionMatch links one transaction to the subscription it was matched
// against.
type SubscriptionMatch struct {
	Subscription *ledger.Subscription
	Transaction  *ledger.Transaction
	Amount       decimal.Decimal
}

// MatchSubscriptions matches the ledger's transactions against active
// subscription matchers. A transaction matches at most one subscription;
// candidates are tried in subscription creation order, so the first match
// wins deterministically.
func MatchSubscriptions(l Ledger, f Filters) []SubscriptionMatch {
	subs := l.Subscriptions()
	matchers := make([]*subscriptionMatcher, 0, len(subs))
	for _, sub := range subs {
		if !sub.Active {
			continue
		}
		matchers = append(matchers, newSubscriptionMatcher(sub))
	}

	var out []SubscriptionMatch
	for _, txn := range l.Transactions() {
		if !f.Match(txn) {
			continue
		}
		amount := txn.NegativeLegSum().Abs()
		if amount.IsZero() {
			continue
		}
		for _, m := range matchers {
			if m.matches(txn, amount) {
				out = append(out, SubscriptionMatch{
					Subscription: m.sub,
					Transaction:  txn,
					Amount:       amount,
				})
				break
			}
		}
	}
	return out
}

// MatchesSubscription reports whether a single transaction matches a
// subscription: description against matcher text, amount within tolerance of
// the typical charge, and day of month within the allowed window when set.
func MatchesSubscription(sub *ledger.Subscription, txn *ledger.Transaction) bool {
	amount := txn.NegativeLegSum().Abs()
	return newSubscriptionMatcher(sub).matches(txn, amount)
}

type subscriptionMatcher struct {
	sub     *ledger.Subscription
	pattern *regexp.Regexp // nil when matcher text is a plain substring
	needle  string
}

// newSubscriptionMatcher compiles the matcher text as a case-insensitive
// regular expression when it carries regex metacharacters; otherwise it is
// treated as a plain substring.
func newSubscriptionMatcher(sub *ledger.Subscription) *subscriptionMatcher {
	m := &subscriptionMatcher{sub: sub, needle: strings.ToLower(sub.MatcherText)}
	if strings.ContainsAny(sub.MatcherText, `\.+*?()|[]{}^$`) {
		if re, err := regexp.Compile("(?i)" + sub.MatcherText); err == nil {
			m.pattern = re
		}
	}
	return m
}

func (m *subscriptionMatcher) matches(txn *ledger.Transaction, amount decimal.Decimal) bool {
	if m.pattern != nil {
		if !m.pattern.MatchString(txn.Description) {
			return false
		}
	} else if !strings.Contains(strings.ToLower(txn.Description), m.needle) {
		return false
	}

	if amount.Sub(m.sub.TypicalAmount).Abs().GreaterThan(m.sub.AmountTolerance) {
		return false
	}

	if m.sub.DayOfMonth > 0 {
		if dayDistance(txn.OccurredAt.Day(), m.sub.DayOfMonth) > subscriptionDayWindow {
			return false
		}
	}
	return true
}

// dayDistance measures distance between days of month, wrapping around the
// month boundary so the 1st is close to the 30th.
func dayDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if wrapped := 31 - d; wrapped < d {
		d = wrapped
	}
	return d
}
