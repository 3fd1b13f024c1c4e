package bookings

// Status is the booking's lifecycle axis, driven by user actions, supplier
// actions and the cleanup sweeper.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusPendingInfo     Status = "PENDING_INFO"
	StatusPendingPayment  Status = "PENDING_PAYMENT"
	StatusPendingConfirm  Status = "PENDING_CONFIRM"
	StatusWaitingSupplier Status = "WAITING_SUPPLIER"
	StatusConfirmed       Status = "CONFIRMED"
	StatusCancelled       Status = "CANCELLED"
	StatusExpired         Status = "EXPIRED"
)

// PaymentStatus is the independent money axis.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentPartial  PaymentStatus = "PARTIAL"
)

// IsTerminal reports whether no further lifecycle transitions are legal.
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusCancelled || s == StatusExpired
}

// IsPending covers the pre-confirmation checkout states.
func (s Status) IsPending() bool {
	switch s {
	case StatusPending, StatusPendingInfo, StatusPendingPayment, StatusPendingConfirm:
		return true
	}
	return false
}

// CanUpdateContact gates the contact/passenger submission step.
func (s Status) CanUpdateContact() bool {
	return s == StatusPending || s == StatusPendingInfo
}

// CanSelectPaymentMethod gates the payment method selection step.
func (s Status) CanSelectPaymentMethod() bool {
	return s == StatusPendingPayment
}

// CanConfirm gates the final checkout confirmation.
func (s Status) CanConfirm() bool {
	return s == StatusPendingConfirm
}

// CanSupplierRespond gates supplier accept/reject.
func (s Status) CanSupplierRespond() bool {
	return s == StatusWaitingSupplier
}

// CanCancel reports whether the booking may still be cancelled. Confirmed
// bookings remain cancellable (with a refund); terminal cancelled/expired
// ones do not.
func (s Status) CanCancel() bool {
	return !s.IsTerminal() || s == StatusConfirmed
}
