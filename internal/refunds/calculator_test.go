package refunds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateTieredPolicy(t *testing.T) {
	// Free cancellation 72h+ out, 50% fee 24h+ out, full forfeit inside 24h.
	policy := &RefundPolicy{
		Rules: []RefundRule{
			{BeforeHours: 24, FeePct: 50},
			{BeforeHours: 72, FeePct: 0},
		},
	}
	departure := time.Date(2026, time.June, 20, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		cancelled  time.Time
		wantFeePct float64
		wantRefund float64
	}{
		{"well in advance", departure.Add(-100 * time.Hour), 0, 1000000},
		{"exactly at 72h", departure.Add(-72 * time.Hour), 0, 1000000},
		{"30h before departure", departure.Add(-30 * time.Hour), 50, 500000},
		{"exactly at 24h", departure.Add(-24 * time.Hour), 50, 500000},
		{"12h before departure", departure.Add(-12 * time.Hour), 100, 0},
		{"after departure", departure.Add(2 * time.Hour), 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := Calculate(policy, 1000000, departure, tt.cancelled)
			assert.Equal(t, tt.wantFeePct, quote.FeePct)
			assert.Equal(t, tt.wantRefund, quote.RefundAmount)
			assert.Equal(t, 1000000-tt.wantRefund, quote.FeeAmount)
		})
	}
}

func TestCalculateZeroHourRuleAppliesAfterDeparture(t *testing.T) {
	// Hours remaining never go negative, so a 0-hour rule still matches a
	// cancellation filed after the departure instant.
	departure := time.Date(2026, time.June, 20, 8, 0, 0, 0, time.UTC)
	policy := &RefundPolicy{
		Rules: []RefundRule{
			{BeforeHours: 24, FeePct: 20},
			{BeforeHours: 0, FeePct: 50},
		},
	}

	quote := Calculate(policy, 1000000, departure, departure.Add(2*time.Hour))
	assert.Equal(t, 50.0, quote.FeePct)
	assert.Equal(t, 500000.0, quote.RefundAmount)
}

func TestCalculateRuleOrderDoesNotMatter(t *testing.T) {
	departure := time.Date(2026, time.June, 20, 8, 0, 0, 0, time.UTC)
	scrambled := &RefundPolicy{
		Rules: []RefundRule{
			{BeforeHours: 72, FeePct: 0},
			{BeforeHours: 24, FeePct: 50},
			{BeforeHours: 48, FeePct: 25},
		},
	}

	quote := Calculate(scrambled, 200000, departure, departure.Add(-50*time.Hour))
	assert.Equal(t, 25.0, quote.FeePct)
	assert.Equal(t, 150000.0, quote.RefundAmount)
}

func TestCalculateNoPolicyRefundsInFull(t *testing.T) {
	departure := time.Date(2026, time.June, 20, 8, 0, 0, 0, time.UTC)

	quote := Calculate(nil, 750000, departure, departure.Add(-time.Hour))
	assert.Equal(t, 0.0, quote.FeePct)
	assert.Equal(t, 750000.0, quote.RefundAmount)

	empty := &RefundPolicy{}
	quote = Calculate(empty, 750000, departure, departure.Add(-time.Hour))
	assert.Equal(t, 750000.0, quote.RefundAmount)
}

func TestCalculateZeroTotal(t *testing.T) {
	departure := time.Date(2026, time.June, 20, 8, 0, 0, 0, time.UTC)
	policy := &RefundPolicy{Rules: []RefundRule{{BeforeHours: 24, FeePct: 50}}}

	quote := Calculate(policy, 0, departure, departure.Add(-30*time.Hour))
	assert.Equal(t, 0.0, quote.FeeAmount)
	assert.Equal(t, 0.0, quote.RefundAmount)
}
