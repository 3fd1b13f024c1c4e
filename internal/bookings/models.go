package bookings

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Booking is the purchase aggregate root. Items are immutable line records;
// total_amount always equals the sum of item totals.
type Booking struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Reference string    `json:"reference" gorm:"uniqueIndex;not null;size:20"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	VariantID uuid.UUID `json:"variant_id" gorm:"type:uuid;index;not null"`
	HoldID    uuid.UUID `json:"hold_id" gorm:"type:uuid;uniqueIndex;not null"`

	Status        Status        `json:"status" gorm:"type:varchar(20);not null;index"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'UNPAID'"`

	CurrencyCode string  `json:"currency_code" gorm:"type:varchar(3);not null"`
	TotalAmount  float64 `json:"total_amount" gorm:"not null;default:0"`

	ContactName  string `json:"contact_name" gorm:"size:255"`
	ContactEmail string `json:"contact_email" gorm:"size:255"`
	ContactPhone string `json:"contact_phone" gorm:"size:50"`
	ContactNote  string `json:"contact_note,omitempty" gorm:"type:text"`

	PaymentMethodID  *uuid.UUID `json:"payment_method_id,omitempty" gorm:"type:uuid"`
	PaymentProfileID *uuid.UUID `json:"payment_profile_id,omitempty" gorm:"type:uuid"`
	ChargeRef        *string    `json:"charge_ref,omitempty" gorm:"size:255"`

	CancelReason       string     `json:"cancel_reason,omitempty" gorm:"size:500"`
	RefundedAmount     float64    `json:"refunded_amount" gorm:"default:0"`
	IsSupplierNotified bool       `json:"is_supplier_notified" gorm:"default:false"`
	SupplierNotifiedAt *time.Time `json:"supplier_notified_at,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Items []BookingItem `json:"items,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// BookingItem is one priced line. unit_price is frozen from the pricing
// resolver at purchase time and never recomputed from live rules.
type BookingItem struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookingID       uuid.UUID `json:"booking_id" gorm:"type:uuid;index;not null"`
	VariantID       uuid.UUID `json:"variant_id" gorm:"type:uuid;not null"`
	SessionID       uuid.UUID `json:"session_id" gorm:"type:uuid;index;not null"`
	PassengerTypeID uuid.UUID `json:"passenger_type_id" gorm:"type:uuid;not null"`
	Quantity        int       `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice       float64   `json:"unit_price" gorm:"not null"`
	TotalAmount     float64   `json:"total_amount" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`

	Passengers []BookingPassenger `json:"passengers,omitempty" gorm:"foreignKey:BookingItemID;constraint:OnDelete:CASCADE;"`
}

// BookingPassenger holds per-seat identity data for one booked seat.
type BookingPassenger struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookingItemID   uuid.UUID `json:"booking_item_id" gorm:"type:uuid;index;not null"`
	PassengerTypeID uuid.UUID `json:"passenger_type_id" gorm:"type:uuid;not null"`
	FullName        string    `json:"full_name" gorm:"not null;size:255"`
	Phone           string    `json:"phone,omitempty" gorm:"size:50"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Booking) TableName() string          { return "bookings" }
func (BookingItem) TableName() string      { return "booking_items" }
func (BookingPassenger) TableName() string { return "booking_passengers" }

// RecalcTotal re-derives the aggregate total from its items. Called on
// every item mutation so the total invariant holds.
func (b *Booking) RecalcTotal() {
	var total float64
	for _, item := range b.Items {
		total += item.TotalAmount
	}
	b.TotalAmount = total
}

// TotalQuantity sums seats across all items.
func (b *Booking) TotalQuantity() int {
	var qty int
	for _, item := range b.Items {
		qty += item.Quantity
	}
	return qty
}

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReference generates a short human-readable booking code.
func NewReference() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = referenceAlphabet[rand.Intn(len(referenceAlphabet))]
	}
	return fmt.Sprintf("TL-%s", suffix)
}
