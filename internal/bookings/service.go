package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourly/internal/catalog"
	"tourly/internal/holds"
	"tourly/internal/notifications"
	"tourly/internal/payments"
	"tourly/internal/refunds"
	"tourly/internal/shared/apperror"
	"tourly/internal/users"
	"tourly/pkg/logger"

	"github.com/google/uuid"
)

const (
	msgHoldExpired       = "Your booking hold has expired. Please start a new booking."
	msgMethodIneligible  = "The selected payment method is not available for this amount."
	msgInvalidTransition = "This booking cannot be updated in its current state."
)

// CancelInitiator records who triggered a cancellation; it decides whether
// the refund ladder applies or the customer is made whole.
type CancelInitiator string

const (
	CancelledByUser     CancelInitiator = "user"
	CancelledBySupplier CancelInitiator = "supplier"
	CancelledBySystem   CancelInitiator = "system"
)

// ContactRequest carries the contact + passenger submission.
type ContactRequest struct {
	Name       string             `json:"name" validate:"required,min=2,max=255"`
	Email      string             `json:"email" validate:"required,email"`
	Phone      string             `json:"phone" validate:"required,min=8,max=20"`
	Note       string             `json:"note" validate:"max=2000"`
	Passengers []PassengerRequest `json:"passengers" validate:"dive"`
}

// PassengerRequest is per-seat identity data keyed by passenger type.
type PassengerRequest struct {
	PassengerTypeID uuid.UUID `json:"passenger_type_id" validate:"required"`
	FullName        string    `json:"full_name" validate:"required,min=2,max=255"`
	Phone           string    `json:"phone" validate:"max=50"`
}

// SelectPaymentRequest picks a payment method and optional stored profile.
type SelectPaymentRequest struct {
	PaymentMethodID  uuid.UUID  `json:"payment_method_id" validate:"required"`
	PaymentProfileID *uuid.UUID `json:"payment_profile_id,omitempty"`
}

type Service interface {
	GetBooking(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) (*Booking, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, int64, error)
	UpdateContact(ctx context.Context, actorID, id uuid.UUID, req ContactRequest) (*Booking, error)
	SelectPaymentMethod(ctx context.Context, actorID, id uuid.UUID, req SelectPaymentRequest) (*Booking, error)
	Confirm(ctx context.Context, actorID, id uuid.UUID) (*Booking, error)
	Cancel(ctx context.Context, actorID, id uuid.UUID, reason string, initiator CancelInitiator) (*Booking, error)
	SupplierAccept(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) (*Booking, error)
	SupplierReject(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID, reason string) (*Booking, error)

	// Sweeper entry points; see the cleanup package.
	NotifySupplier(ctx context.Context, id uuid.UUID) error
	CancelBySystem(ctx context.Context, id uuid.UUID, reason string) error

	// Gateway redirect payment; see internal/gateway.
	InitiateGatewayPayment(ctx context.Context, actorID, id uuid.UUID, clientIP string) (string, error)
	SettleGatewayPayment(ctx context.Context, bookingID uuid.UUID, txnRef string, amount float64, success bool) error
	SetPaymentURLBuilder(builder PaymentURLBuilder)
}

type service struct {
	repo        Repository
	holds       holds.Manager
	vault       payments.Vault
	methods     payments.Repository
	refundRepo  refunds.Repository
	catalogRepo catalog.Repository
	userRepo    users.Repository
	queue       notifications.Queue
	paymentURLs PaymentURLBuilder
	logger      *logger.Logger
}

// SetPaymentURLBuilder injects the redirect URL builder after construction;
// the gateway client is wired late because it also consumes this service.
func (s *service) SetPaymentURLBuilder(builder PaymentURLBuilder) {
	s.paymentURLs = builder
}

func NewService(
	repo Repository,
	holdManager holds.Manager,
	vault payments.Vault,
	methods payments.Repository,
	refundRepo refunds.Repository,
	catalogRepo catalog.Repository,
	userRepo users.Repository,
	queue notifications.Queue,
	log *logger.Logger,
) Service {
	return &service{
		repo:        repo,
		holds:       holdManager,
		vault:       vault,
		methods:     methods,
		refundRepo:  refundRepo,
		catalogRepo: catalogRepo,
		userRepo:    userRepo,
		queue:       queue,
		logger:      log,
	}
}

func (s *service) GetBooking(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, apperror.NotFound("Booking not found")
		}
		return nil, err
	}
	if err := s.authorize(ctx, booking, actorID, actorRole); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *service) ListUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// UpdateContact records contact details, rewrites the passenger roster to
// reconcile with item quantities, and advances the booking to payment
// selection. The hold must still be live.
func (s *service) UpdateContact(ctx context.Context, actorID, id uuid.UUID, req ContactRequest) (*Booking, error) {
	booking, err := s.ownedBooking(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanUpdateContact() {
		return nil, apperror.BadRequest(msgInvalidTransition)
	}
	if err := s.requireLiveHold(ctx, booking); err != nil {
		return nil, err
	}
	if err := s.validatePassengerCounts(booking, req.Passengers); err != nil {
		return nil, err
	}

	booking.ContactName = req.Name
	booking.ContactEmail = req.Email
	booking.ContactPhone = req.Phone
	booking.ContactNote = req.Note
	booking.Status = StatusPendingPayment

	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, err
	}

	for i := range booking.Items {
		item := &booking.Items[i]
		roster := passengersForItem(item, req.Passengers)
		if err := s.repo.ReplacePassengers(ctx, item.ID, roster); err != nil {
			return nil, err
		}
		item.Passengers = roster
	}

	s.logger.LogBookingTransition(ctx, booking.ID.String(), string(StatusPendingInfo), string(StatusPendingPayment))
	return booking, nil
}

// SelectPaymentMethod validates the method's amount fence against the
// booking total and advances to the confirmation step.
func (s *service) SelectPaymentMethod(ctx context.Context, actorID, id uuid.UUID, req SelectPaymentRequest) (*Booking, error) {
	booking, err := s.ownedBooking(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanSelectPaymentMethod() {
		return nil, apperror.BadRequest(msgInvalidTransition)
	}
	if err := s.requireLiveHold(ctx, booking); err != nil {
		return nil, err
	}

	method, err := s.methods.GetMethodByID(ctx, req.PaymentMethodID)
	if err != nil {
		if errors.Is(err, payments.ErrMethodNotFound) {
			return nil, apperror.NotFound("Payment method not found")
		}
		return nil, err
	}
	if !method.Enabled {
		return nil, apperror.BadRequest(msgMethodIneligible)
	}
	if !method.AllowsAmount(booking.TotalAmount) {
		return nil, apperror.BadRequest(msgMethodIneligible)
	}

	if method.Kind == payments.MethodCard {
		if req.PaymentProfileID == nil {
			return nil, apperror.BadRequest("A stored payment profile is required for card payments.")
		}
		profile, err := s.methods.GetProfileByID(ctx, *req.PaymentProfileID)
		if err != nil {
			if errors.Is(err, payments.ErrProfileNotFound) {
				return nil, apperror.NotFound("Payment profile not found")
			}
			return nil, err
		}
		if profile.UserID != booking.UserID {
			return nil, apperror.Forbidden("Payment profile does not belong to you")
		}
		booking.PaymentProfileID = req.PaymentProfileID
	}

	booking.PaymentMethodID = &method.ID
	booking.Status = StatusPendingConfirm

	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.LogBookingTransition(ctx, booking.ID.String(), string(StatusPendingPayment), string(StatusPendingConfirm))
	return booking, nil
}

// Confirm completes checkout: charges the stored profile for card methods,
// claims the hold permanently and hands the booking to the supplier.
func (s *service) Confirm(ctx context.Context, actorID, id uuid.UUID) (*Booking, error) {
	booking, err := s.ownedBooking(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanConfirm() {
		return nil, apperror.BadRequest(msgInvalidTransition)
	}
	if booking.PaymentMethodID == nil {
		return nil, apperror.BadRequest("Select a payment method before confirming.")
	}
	if err := s.requireLiveHold(ctx, booking); err != nil {
		return nil, err
	}

	method, err := s.methods.GetMethodByID(ctx, *booking.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	if method.Kind == payments.MethodCard {
		if booking.PaymentProfileID == nil {
			return nil, apperror.BadRequest("A stored payment profile is required for card payments.")
		}
		profile, err := s.methods.GetProfileByID(ctx, *booking.PaymentProfileID)
		if err != nil {
			return nil, err
		}
		chargeRef, err := s.vault.Charge(ctx, payments.ChargeRequest{
			BookingID:   booking.ID,
			CustomerRef: profile.CustomerRef,
			Amount:      booking.TotalAmount,
			Currency:    booking.CurrencyCode,
			Description: "Booking " + booking.Reference,
		})
		if err != nil {
			// Booking stays in PENDING_CONFIRM; the customer may retry.
			return nil, fmt.Errorf("payment charge failed: %w", err)
		}
		booking.ChargeRef = &chargeRef
	}

	if err := s.holds.ClaimHold(ctx, booking.HoldID, booking.ID); err != nil {
		return nil, fmt.Errorf("failed to claim hold: %w", err)
	}

	booking.PaymentStatus = PaymentPaid
	booking.Status = StatusWaitingSupplier
	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.LogBookingTransition(ctx, booking.ID.String(), string(StatusPendingConfirm), string(StatusWaitingSupplier))
	s.enqueue(ctx, notifications.BookingConfirmed(booking.ID, booking.UserID, map[string]interface{}{
		"reference": booking.Reference,
		"total":     booking.TotalAmount,
		"currency":  booking.CurrencyCode,
	}))
	s.notifySupplierAsync(ctx, booking)

	return booking, nil
}

// Cancel terminates a booking. Paid bookings are refunded: the policy
// ladder applies when the customer walks away; supplier rejection and
// system timeouts refund in full.
func (s *service) Cancel(ctx context.Context, actorID, id uuid.UUID, reason string, initiator CancelInitiator) (*Booking, error) {
	booking, err := s.repo.GetByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, apperror.NotFound("Booking not found")
		}
		return nil, err
	}
	if initiator == CancelledByUser && booking.UserID != actorID {
		return nil, apperror.Forbidden("You do not own this booking")
	}
	if !booking.Status.CanCancel() {
		return nil, apperror.BadRequest(msgInvalidTransition)
	}
	previous := booking.Status

	if booking.PaymentStatus == PaymentPaid {
		quote, err := s.refundQuote(ctx, booking, initiator)
		if err != nil {
			return nil, err
		}
		if quote.RefundAmount > 0 {
			if booking.ChargeRef != nil {
				err := s.vault.Refund(ctx, payments.RefundRequest{
					BookingID: booking.ID,
					ChargeRef: *booking.ChargeRef,
					Amount:    quote.RefundAmount,
					Reason:    reason,
				})
				if err != nil {
					// Booking stays in its pre-call state; surface the failure.
					return nil, fmt.Errorf("refund failed: %w", err)
				}
			}
			booking.RefundedAmount = quote.RefundAmount
			if quote.FeeAmount > 0 {
				booking.PaymentStatus = PaymentPartial
			} else {
				booking.PaymentStatus = PaymentRefunded
			}
		}
	}

	if err := s.holds.ReleaseHold(ctx, booking.HoldID); err != nil && !errors.Is(err, holds.ErrHoldNotFound) {
		s.logger.ErrorWithContext(ctx, "failed to release hold on cancel", err, map[string]interface{}{
			"booking_id": booking.ID.String(),
		})
	}

	now := time.Now().UTC()
	booking.Status = StatusCancelled
	booking.CancelReason = reason
	booking.CancelledAt = &now
	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.LogBookingCancelled(ctx, booking.ID.String(), reason)
	s.logger.LogBookingTransition(ctx, booking.ID.String(), string(previous), string(StatusCancelled))
	s.enqueue(ctx, notifications.BookingCancelled(booking.ID, booking.UserID, map[string]interface{}{
		"reference": booking.Reference,
		"reason":    reason,
		"refunded":  booking.RefundedAmount,
	}))
	if booking.RefundedAmount > 0 {
		s.enqueue(ctx, notifications.RefundIssued(booking.ID, booking.UserID, map[string]interface{}{
			"reference": booking.Reference,
			"amount":    booking.RefundedAmount,
			"currency":  booking.CurrencyCode,
		}))
	}

	return booking, nil
}

// SupplierAccept moves a paid booking from WAITING_SUPPLIER to CONFIRMED.
// The transition is conditional on the stored status so a concurrent
// sweeper auto-cancel cannot be overwritten.
func (s *service) SupplierAccept(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) (*Booking, error) {
	booking, err := s.supplierBooking(ctx, actorID, actorRole, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanSupplierRespond() {
		return nil, apperror.BadRequest(msgInvalidTransition)
	}
	if booking.PaymentStatus != PaymentPaid {
		return nil, apperror.BadRequest("Booking cannot be confirmed before payment is captured.")
	}

	now := time.Now().UTC()
	err = s.repo.UpdateStatusIf(ctx, id, StatusWaitingSupplier, StatusConfirmed, map[string]interface{}{
		"confirmed_at": now,
	})
	if err != nil {
		if errors.Is(err, ErrStaleTransition) {
			return nil, apperror.BadRequest(msgInvalidTransition)
		}
		return nil, err
	}
	booking.Status = StatusConfirmed
	booking.ConfirmedAt = &now

	s.logger.LogBookingTransition(ctx, booking.ID.String(), string(StatusWaitingSupplier), string(StatusConfirmed))
	s.enqueue(ctx, notifications.BookingConfirmed(booking.ID, booking.UserID, map[string]interface{}{
		"reference": booking.Reference,
		"final":     true,
	}))
	return booking, nil
}

func (s *service) SupplierReject(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID, reason string) (*Booking, error) {
	if _, err := s.supplierBooking(ctx, actorID, actorRole, id); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "Rejected by supplier"
	}
	return s.Cancel(ctx, actorID, id, reason, CancelledBySupplier)
}

// NotifySupplier marks stage one of the cleanup sweep: the supplier is
// pinged about a booking awaiting response.
func (s *service) NotifySupplier(ctx context.Context, id uuid.UUID) error {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != StatusWaitingSupplier || booking.IsSupplierNotified {
		return nil
	}

	if err := s.notifySupplierAsync(ctx, booking); err != nil {
		return err
	}

	now := time.Now().UTC()
	booking.IsSupplierNotified = true
	booking.SupplierNotifiedAt = &now
	return s.repo.Update(ctx, booking)
}

// CancelBySystem is the sweeper's stage-two auto-cancel: full refund,
// released hold, system reason.
func (s *service) CancelBySystem(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := s.Cancel(ctx, uuid.Nil, id, reason, CancelledBySystem)
	return err
}

func (s *service) ownedBooking(ctx context.Context, actorID, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, apperror.NotFound("Booking not found")
		}
		return nil, err
	}
	if booking.UserID != actorID {
		return nil, apperror.Forbidden("You do not own this booking")
	}
	return booking, nil
}

// supplierBooking resolves a booking for a supplier-side action, verifying
// the actor owns the tour (or is an admin).
func (s *service) supplierBooking(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, apperror.NotFound("Booking not found")
		}
		return nil, err
	}
	if actorRole == string(users.RoleAdmin) {
		return booking, nil
	}

	variant, err := s.catalogRepo.GetVariantByID(ctx, booking.VariantID)
	if err != nil {
		return nil, err
	}
	tour, err := s.catalogRepo.GetTourByID(ctx, variant.TourID)
	if err != nil {
		return nil, err
	}
	if tour.OwnerID != actorID {
		return nil, apperror.Forbidden("You do not supply this tour")
	}
	return booking, nil
}

func (s *service) authorize(ctx context.Context, booking *Booking, actorID uuid.UUID, actorRole string) error {
	if booking.UserID == actorID || actorRole == string(users.RoleAdmin) {
		return nil
	}
	if actorRole == string(users.RoleSupplier) {
		if _, err := s.supplierBooking(ctx, actorID, actorRole, booking.ID); err == nil {
			return nil
		}
	}
	return apperror.Forbidden("You do not own this booking")
}

func (s *service) requireLiveHold(ctx context.Context, booking *Booking) error {
	hold, err := s.holds.GetHold(ctx, booking.HoldID)
	if err != nil {
		return err
	}
	if hold.IsExpired(time.Now().UTC()) {
		return apperror.BadRequest(msgHoldExpired)
	}
	return nil
}

// validatePassengerCounts reconciles the submitted roster against item
// quantities per passenger type. An empty roster is allowed; a non-empty
// one must match exactly.
func (s *service) validatePassengerCounts(booking *Booking, passengers []PassengerRequest) error {
	if len(passengers) == 0 {
		return nil
	}
	wanted := make(map[uuid.UUID]int)
	for _, item := range booking.Items {
		wanted[item.PassengerTypeID] += item.Quantity
	}
	got := make(map[uuid.UUID]int)
	for _, p := range passengers {
		got[p.PassengerTypeID]++
	}
	for typeID, count := range got {
		if wanted[typeID] != count {
			return apperror.BadRequest("Passenger details do not match booked quantities.")
		}
	}
	for typeID, count := range wanted {
		if got[typeID] != count {
			return apperror.BadRequest("Passenger details do not match booked quantities.")
		}
	}
	return nil
}

func (s *service) refundQuote(ctx context.Context, booking *Booking, initiator CancelInitiator) (refunds.Quote, error) {
	// Supplier rejection and system timeouts are not the customer's fault;
	// the fee ladder only applies to customer-initiated cancellation.
	if initiator != CancelledByUser {
		return refunds.Quote{RefundAmount: booking.TotalAmount}, nil
	}

	variant, err := s.catalogRepo.GetVariantByID(ctx, booking.VariantID)
	if err != nil {
		return refunds.Quote{}, err
	}

	var policy *refunds.RefundPolicy
	if variant.RefundPolicyID != nil {
		policy, err = s.refundRepo.GetPolicyByID(ctx, *variant.RefundPolicyID)
		if err != nil && !errors.Is(err, refunds.ErrPolicyNotFound) {
			return refunds.Quote{}, err
		}
	}

	departure := time.Now().UTC()
	if len(booking.Items) > 0 {
		session, err := s.catalogRepo.GetSessionByID(ctx, booking.Items[0].SessionID)
		if err == nil {
			departure = session.DepartureAt()
		}
	}

	return refunds.Calculate(policy, booking.TotalAmount, departure, time.Now().UTC()), nil
}

func (s *service) notifySupplierAsync(ctx context.Context, booking *Booking) error {
	variant, err := s.catalogRepo.GetVariantByID(ctx, booking.VariantID)
	if err != nil {
		return err
	}
	tour, err := s.catalogRepo.GetTourByID(ctx, variant.TourID)
	if err != nil {
		return err
	}
	s.enqueue(ctx, notifications.SupplierActionRequired(booking.ID, tour.OwnerID, map[string]interface{}{
		"reference": booking.Reference,
		"tour":      tour.Name,
		"variant":   variant.Name,
	}))
	return nil
}

// enqueue is fire-and-forget: notification failures never fail a booking
// transition.
func (s *service) enqueue(ctx context.Context, msg *notifications.Message) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, msg); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to enqueue notification", err, map[string]interface{}{
			"template": string(msg.Template),
		})
	}
}
