package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	// ErrStaleTransition means a conditional status update matched no row:
	// somebody else moved the booking first.
	ErrStaleTransition = errors.New("booking was modified concurrently")
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByIDWithItems(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, int64, error)
	Update(ctx context.Context, booking *Booking) error
	// UpdateStatusIf transitions status only when the row still carries the
	// expected status; ErrStaleTransition reports a lost race.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, next Status, updates map[string]interface{}) error
	ReplacePassengers(ctx context.Context, itemID uuid.UUID, passengers []BookingPassenger) error

	// Cleanup sweeper queries.
	FindAwaitingSupplierNotification(ctx context.Context, updatedBefore time.Time) ([]Booking, error)
	FindOverdueSupplierResponses(ctx context.Context, notifiedBefore time.Time) ([]Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create persists the aggregate and its items in one transaction.
func (r *repository) Create(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		// Link the hold back to its booking.
		err := tx.Table("holds").
			Where("id = ?", booking.HoldID).
			Update("booking_id", booking.ID).Error
		if err != nil {
			return fmt.Errorf("failed to link hold: %w", err)
		}
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByIDWithItems(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Passengers").
		First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, int64, error) {
	var bookings []Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Items").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *repository) Update(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

func (r *repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, next Status, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = next
	updates["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&Booking{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return ErrBookingNotFound
		}
		return ErrStaleTransition
	}
	return nil
}

// ReplacePassengers rewrites an item's passenger roster atomically so the
// roster always reconciles with the item quantity.
func (r *repository) ReplacePassengers(ctx context.Context, itemID uuid.UUID, passengers []BookingPassenger) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_item_id = ?", itemID).Delete(&BookingPassenger{}).Error; err != nil {
			return fmt.Errorf("failed to clear passengers: %w", err)
		}
		if len(passengers) == 0 {
			return nil
		}
		for i := range passengers {
			passengers[i].BookingItemID = itemID
		}
		if err := tx.Create(&passengers).Error; err != nil {
			return fmt.Errorf("failed to create passengers: %w", err)
		}
		return nil
	})
}

func (r *repository) FindAwaitingSupplierNotification(ctx context.Context, updatedBefore time.Time) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_supplier_notified = ? AND updated_at < ?",
			StatusWaitingSupplier, false, updatedBefore).
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) FindOverdueSupplierResponses(ctx context.Context, notifiedBefore time.Time) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_supplier_notified = ? AND supplier_notified_at < ?",
			StatusWaitingSupplier, true, notifiedBefore).
		Find(&bookings).Error
	return bookings, err
}
