package gateway

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxnRefRoundTrip(t *testing.T) {
	bookingID := uuid.MustParse("7e57b00c-0000-4000-8000-000000000042")
	at := time.UnixMilli(1750000000000)

	txnRef := NewTxnRef(bookingID, at)
	assert.Equal(t, "7e57b00c-0000-4000-8000-000000000042_1750000000000", txnRef)

	recovered, err := BookingIDFromTxnRef(txnRef)
	require.NoError(t, err)
	assert.Equal(t, bookingID, recovered)
}

func TestTxnRefSuffixKeepsAttemptsDistinct(t *testing.T) {
	bookingID := uuid.New()
	first := NewTxnRef(bookingID, time.UnixMilli(1000))
	second := NewTxnRef(bookingID, time.UnixMilli(2000))
	assert.NotEqual(t, first, second)
}

func TestBookingIDFromTxnRefRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		txnRef string
	}{
		{"empty", ""},
		{"no separator", "7e57b00c-0000-4000-8000-000000000042"},
		{"empty leading segment", "_1750000000000"},
		{"not a uuid", "not-a-uuid_1750000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BookingIDFromTxnRef(tt.txnRef)
			assert.ErrorIs(t, err, ErrInvalidTxnRef)
		})
	}
}

func TestBookingIDFromTxnRefToleratesUnderscoresInSuffix(t *testing.T) {
	bookingID := uuid.New()
	recovered, err := BookingIDFromTxnRef(bookingID.String() + "_retry_2")
	require.NoError(t, err)
	assert.Equal(t, bookingID, recovered)
}
