package payments

import (
	"context"

	"github.com/google/uuid"
)

// ChargeRequest describes one vault charge against a stored profile.
type ChargeRequest struct {
	BookingID   uuid.UUID
	CustomerRef string
	Amount      float64
	Currency    string
	Description string
}

// RefundRequest reverses part or all of a prior charge.
type RefundRequest struct {
	BookingID uuid.UUID
	ChargeRef string
	Amount    float64
	Reason    string
}

// Vault charges and refunds money against stored payment profiles. The
// production implementation lives in the gateway package.
type Vault interface {
	Charge(ctx context.Context, req ChargeRequest) (chargeRef string, err error)
	Refund(ctx context.Context, req RefundRequest) error
}
