package database

import (
	"tourly/internal/bookings"
	"tourly/internal/catalog"
	"tourly/internal/holds"
	"tourly/internal/payments"
	"tourly/internal/refunds"
	"tourly/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&catalog.Tour{},
		&catalog.Variant{},
		&catalog.Session{},
		&catalog.PassengerType{},
		&catalog.BasePrice{},
		&catalog.PriceRule{},
		&catalog.PriceRulePrice{},
		&refunds.RefundPolicy{},
		&refunds.RefundRule{},
		&payments.PaymentMethod{},
		&payments.PaymentProfile{},
		&holds.Hold{},
		&bookings.Booking{},
		&bookings.BookingItem{},
		&bookings.BookingPassenger{},
	)
}
