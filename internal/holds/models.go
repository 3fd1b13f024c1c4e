package holds

import (
	"time"

	"github.com/google/uuid"
)

// releasedAt is the sentinel written into expires_at when a hold is
// released explicitly; any past timestamp means "not holding seats".
var releasedAt = time.Unix(0, 0).UTC()

// Hold reserves seats against a session. Expiry is the whole lifecycle:
// a future expires_at is an active temporary hold, a nil expires_at is a
// permanently claimed hold backing a paid booking, and a past expires_at
// is expired or released.
type Hold struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	SessionID uuid.UUID  `json:"session_id" gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;index;not null"`
	BookingID *uuid.UUID `json:"booking_id,omitempty" gorm:"type:uuid;index"`
	Quantity  int        `json:"quantity" gorm:"not null;check:quantity > 0"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" gorm:"index"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Hold) TableName() string { return "holds" }

// IsActive reports whether the hold currently counts against capacity.
func (h *Hold) IsActive(now time.Time) bool {
	return h.ExpiresAt == nil || h.ExpiresAt.After(now)
}

// IsExpired reports whether a temporary hold's window has lapsed.
// A claimed hold (nil expiry) never expires.
func (h *Hold) IsExpired(now time.Time) bool {
	return h.ExpiresAt != nil && !h.ExpiresAt.After(now)
}

// Claim makes the hold permanent, binding it to a confirmed booking.
func (h *Hold) Claim(bookingID uuid.UUID) {
	h.BookingID = &bookingID
	h.ExpiresAt = nil
}

// Release frees the held seats. Releasing an already expired or released
// hold is a no-op, so the call is idempotent.
func (h *Hold) Release(now time.Time) {
	if h.IsExpired(now) {
		return
	}
	released := releasedAt
	h.ExpiresAt = &released
}

// Extend pushes the expiry of a still-active temporary hold forward.
func (h *Hold) Extend(now time.Time, ttl time.Duration) bool {
	if h.ExpiresAt == nil || h.IsExpired(now) {
		return false
	}
	next := now.Add(ttl)
	h.ExpiresAt = &next
	return true
}
