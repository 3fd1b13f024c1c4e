package refunds

import (
	"sort"
	"time"
)

// Quote is the outcome of a cancellation fee calculation.
type Quote struct {
	FeePct       float64 `json:"fee_pct"`
	FeeAmount    float64 `json:"fee_amount"`
	RefundAmount float64 `json:"refund_amount"`
}

// Calculate resolves the cancellation fee for a booking total given how far
// ahead of departure the cancellation happens.
//
// Rules are evaluated most-generous-notice first: the first rule whose
// BeforeHours threshold is still met applies. Cancelling closer to departure
// than every rule allows forfeits the full amount. A variant with no policy
// refunds in full.
func Calculate(policy *RefundPolicy, total float64, departureAt, cancelledAt time.Time) Quote {
	if policy == nil || len(policy.Rules) == 0 {
		return quoteFor(total, 0)
	}

	diffHours := departureAt.Sub(cancelledAt).Hours()
	if diffHours < 0 {
		diffHours = 0
	}

	rules := make([]RefundRule, len(policy.Rules))
	copy(rules, policy.Rules)
	sort.Slice(rules, func(i, j int) bool { return rules[i].BeforeHours > rules[j].BeforeHours })

	for _, rule := range rules {
		if diffHours >= float64(rule.BeforeHours) {
			return quoteFor(total, rule.FeePct)
		}
	}
	return quoteFor(total, 100)
}

func quoteFor(total, feePct float64) Quote {
	fee := total * feePct / 100
	return Quote{
		FeePct:       feePct,
		FeeAmount:    fee,
		RefundAmount: total - fee,
	}
}
