package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidTxnRef = errors.New("invalid transaction reference")

// NewTxnRef builds a gateway transaction reference embedding the booking ID
// as the leading segment so callbacks can be routed without a side table.
// The suffix keeps retried payment attempts for one booking distinct.
func NewTxnRef(bookingID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s_%d", bookingID, at.UnixMilli())
}

// BookingIDFromTxnRef recovers the booking ID from a transaction reference.
func BookingIDFromTxnRef(txnRef string) (uuid.UUID, error) {
	parts := strings.SplitN(txnRef, "_", 2)
	if len(parts) != 2 || parts[0] == "" {
		return uuid.Nil, ErrInvalidTxnRef
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, ErrInvalidTxnRef
	}
	return id, nil
}
