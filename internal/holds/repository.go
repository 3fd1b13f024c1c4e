package holds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrHoldNotFound   = errors.New("hold not found")
	ErrNotEnoughSeats = errors.New("not enough seats available")
	ErrSessionNotOpen = errors.New("session is not available for booking")
	ErrSessionMissing = errors.New("session not found")
)

type Repository interface {
	// CreateWithCapacityCheck inserts the hold atomically: the session row
	// is locked, active held quantity is summed, and the insert only goes
	// through when the requested quantity still fits.
	CreateWithCapacityCheck(ctx context.Context, hold *Hold, capacity int) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hold, error)
	Update(ctx context.Context, hold *Hold) error
	SumActiveQuantity(ctx context.Context, sessionID uuid.UUID, now time.Time) (int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWithCapacityCheck(ctx context.Context, hold *Hold, capacity int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the session row so concurrent holds against the same
		// departure serialize on the capacity check.
		var session struct {
			ID     uuid.UUID `gorm:"column:id"`
			Status string    `gorm:"column:status"`
		}
		err := tx.Table("sessions").
			Select("id, status").
			Where("id = ?", hold.SessionID).
			Set("gorm:query_option", "FOR UPDATE").
			First(&session).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionMissing
			}
			return fmt.Errorf("failed to lock session: %w", err)
		}

		if session.Status != "open" {
			return ErrSessionNotOpen
		}

		var held int64
		err = tx.Model(&Hold{}).
			Where("session_id = ? AND (expires_at IS NULL OR expires_at > ?)", hold.SessionID, time.Now().UTC()).
			Select("COALESCE(SUM(quantity), 0)").
			Scan(&held).Error
		if err != nil {
			return fmt.Errorf("failed to sum held seats: %w", err)
		}

		if int(held)+hold.Quantity > capacity {
			return ErrNotEnoughSeats
		}

		if err := tx.Create(hold).Error; err != nil {
			return fmt.Errorf("failed to create hold: %w", err)
		}
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Hold, error) {
	var hold Hold
	err := r.db.WithContext(ctx).First(&hold, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	return &hold, nil
}

func (r *repository) Update(ctx context.Context, hold *Hold) error {
	// Save with Select so a nil ExpiresAt is written as NULL instead of
	// being skipped as a zero value.
	return r.db.WithContext(ctx).Model(hold).
		Select("booking_id", "expires_at", "updated_at").
		Updates(map[string]interface{}{
			"booking_id": hold.BookingID,
			"expires_at": hold.ExpiresAt,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) SumActiveQuantity(ctx context.Context, sessionID uuid.UUID, now time.Time) (int, error) {
	var held int64
	err := r.db.WithContext(ctx).Model(&Hold{}).
		Where("session_id = ? AND (expires_at IS NULL OR expires_at > ?)", sessionID, now).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&held).Error
	if err != nil {
		return 0, err
	}
	return int(held), nil
}
