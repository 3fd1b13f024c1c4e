package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusGuards(t *testing.T) {
	cases := []struct {
		status           Status
		terminal         bool
		pending          bool
		canContact       bool
		canSelectPayment bool
		canConfirm       bool
		canSupplier      bool
		canCancel        bool
	}{
		{StatusPending, false, true, true, false, false, false, true},
		{StatusPendingInfo, false, true, true, false, false, false, true},
		{StatusPendingPayment, false, true, false, true, false, false, true},
		{StatusPendingConfirm, false, true, false, false, true, false, true},
		{StatusWaitingSupplier, false, false, false, false, false, true, true},
		{StatusConfirmed, true, false, false, false, false, false, true},
		{StatusCancelled, true, false, false, false, false, false, false},
		{StatusExpired, true, false, false, false, false, false, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.terminal, tc.status.IsTerminal())
			assert.Equal(t, tc.pending, tc.status.IsPending())
			assert.Equal(t, tc.canContact, tc.status.CanUpdateContact())
			assert.Equal(t, tc.canSelectPayment, tc.status.CanSelectPaymentMethod())
			assert.Equal(t, tc.canConfirm, tc.status.CanConfirm())
			assert.Equal(t, tc.canSupplier, tc.status.CanSupplierRespond())
			assert.Equal(t, tc.canCancel, tc.status.CanCancel())
		})
	}
}

func TestNewReferenceFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewReference()
		assert.Len(t, ref, 9)
		assert.Equal(t, "TL-", ref[:3])
		assert.NotContains(t, ref, "0")
		assert.NotContains(t, ref, "O")
		assert.NotContains(t, ref, "1")
		assert.NotContains(t, ref, "I")
		seen[ref] = true
	}
	assert.Greater(t, len(seen), 90, "references should rarely collide")
}
