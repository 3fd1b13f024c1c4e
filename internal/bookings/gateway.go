package bookings

import (
	"context"
	"errors"
	"math"

	"tourly/internal/gateway"
	"tourly/internal/notifications"
	"tourly/internal/shared/apperror"

	"github.com/google/uuid"
)

var _ gateway.BookingPayments = (Service)(nil)

// PaymentURLBuilder builds signed redirect URLs; satisfied by gateway.Client.
type PaymentURLBuilder interface {
	BuildPaymentURL(req gateway.PaymentURLRequest) (paymentURL, txnRef string)
}

// InitiateGatewayPayment produces a signed redirect URL for paying the
// booking through the gateway's hosted page.
func (s *service) InitiateGatewayPayment(ctx context.Context, actorID, id uuid.UUID, clientIP string) (string, error) {
	booking, err := s.ownedBooking(ctx, actorID, id)
	if err != nil {
		return "", err
	}
	if !booking.Status.CanConfirm() {
		return "", apperror.BadRequest(msgInvalidTransition)
	}
	if booking.PaymentStatus != PaymentUnpaid {
		return "", apperror.BadRequest("This booking has already been paid.")
	}
	if err := s.requireLiveHold(ctx, booking); err != nil {
		return "", err
	}
	if s.paymentURLs == nil {
		return "", apperror.BadRequest("Online payment is not configured.")
	}

	paymentURL, txnRef := s.paymentURLs.BuildPaymentURL(gateway.PaymentURLRequest{
		BookingID: booking.ID,
		Amount:    booking.TotalAmount,
		OrderInfo: "Thanh toan don hang " + booking.Reference,
		ClientIP:  clientIP,
	})

	s.logger.InfoWithContext(ctx, "gateway payment initiated", map[string]interface{}{
		"booking_id": booking.ID.String(),
		"txn_ref":    txnRef,
	})
	return paymentURL, nil
}

// SettleGatewayPayment records the outcome of a redirect payment reported
// by the gateway's IPN callback. Successful settlement behaves like a
// confirmed checkout: payment captured, hold claimed, supplier engaged.
func (s *service) SettleGatewayPayment(ctx context.Context, bookingID uuid.UUID, txnRef string, amount float64, success bool) error {
	booking, err := s.repo.GetByIDWithItems(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return gateway.ErrBookingNotFound
		}
		return err
	}

	if booking.PaymentStatus != PaymentUnpaid {
		return gateway.ErrAlreadySettled
	}

	if !success {
		// A failed attempt is acknowledged but changes nothing; the
		// customer may retry from PENDING_CONFIRM.
		s.logger.InfoWithContext(ctx, "gateway payment attempt failed", map[string]interface{}{
			"booking_id": bookingID.String(),
			"txn_ref":    txnRef,
		})
		return nil
	}

	if math.Abs(amount-booking.TotalAmount) > 0.009 {
		return gateway.ErrAmountMismatch
	}

	if err := s.holds.ClaimHold(ctx, booking.HoldID, booking.ID); err != nil {
		return err
	}

	previous := booking.Status
	booking.ChargeRef = &txnRef
	booking.PaymentStatus = PaymentPaid
	if booking.Status.CanConfirm() {
		booking.Status = StatusWaitingSupplier
	}
	if err := s.repo.Update(ctx, booking); err != nil {
		return err
	}

	if booking.Status == StatusWaitingSupplier && previous != StatusWaitingSupplier {
		s.logger.LogBookingTransition(ctx, booking.ID.String(), string(previous), string(StatusWaitingSupplier))
		s.enqueue(ctx, notifications.BookingConfirmed(booking.ID, booking.UserID, map[string]interface{}{
			"reference": booking.Reference,
			"total":     booking.TotalAmount,
			"currency":  booking.CurrencyCode,
		}))
		if err := s.notifySupplierAsync(ctx, booking); err != nil {
			s.logger.ErrorWithContext(ctx, "failed to notify supplier after settlement", err, map[string]interface{}{
				"booking_id": booking.ID.String(),
			})
		}
	}
	return nil
}
