package checkout

import (
	"tourly/internal/bookings"
	"tourly/internal/catalog"
	"tourly/internal/holds"
	"tourly/internal/pricing"
	"tourly/internal/users"

	"github.com/google/uuid"
)

// ItemRequest is one requested (passenger type, quantity) pair.
type ItemRequest struct {
	PassengerTypeID uuid.UUID `json:"passenger_type_id" validate:"required"`
	Quantity        int       `json:"quantity" validate:"required,min=1,max=50"`
}

// PurchaseRequest is the checkout entry payload.
type PurchaseRequest struct {
	VariantID uuid.UUID     `json:"variant_id" validate:"required"`
	Date      string        `json:"date" validate:"required,datetime=2006-01-02"`
	Items     []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PurchaseContext is the shared, append-only state threaded through the
// pipeline: each step reads what earlier steps resolved and adds its own
// contribution. Steps never reach around it.
type PurchaseContext struct {
	Request PurchaseRequest
	UserID  uuid.UUID

	User           *users.User
	Variant        *catalog.Variant
	Session        *catalog.Session
	Hold           *holds.Hold
	Prices         []pricing.TypePrice
	PassengerTypes map[uuid.UUID]catalog.PassengerType
	Items          []bookings.BookingItem
	Booking        *bookings.Booking
}

// TotalQuantity sums the requested seats across all item pairs.
func (pc *PurchaseContext) TotalQuantity() int {
	var qty int
	for _, item := range pc.Request.Items {
		qty += item.Quantity
	}
	return qty
}
