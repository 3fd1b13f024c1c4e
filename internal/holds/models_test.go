package holds

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func holdExpiring(at time.Time) *Hold {
	return &Hold{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		UserID:    uuid.New(),
		Quantity:  2,
		ExpiresAt: &at,
	}
}

func TestHoldIsActive(t *testing.T) {
	now := time.Now().UTC()

	t.Run("future expiry counts", func(t *testing.T) {
		h := holdExpiring(now.Add(10 * time.Minute))
		assert.True(t, h.IsActive(now))
	})

	t.Run("past expiry does not count", func(t *testing.T) {
		h := holdExpiring(now.Add(-time.Minute))
		assert.False(t, h.IsActive(now))
	})

	t.Run("claimed hold counts forever", func(t *testing.T) {
		h := holdExpiring(now.Add(10 * time.Minute))
		h.Claim(uuid.New())
		assert.True(t, h.IsActive(now))
		assert.True(t, h.IsActive(now.Add(100*24*time.Hour)))
	})
}

func TestHoldClaim(t *testing.T) {
	now := time.Now().UTC()
	h := holdExpiring(now.Add(10 * time.Minute))
	bookingID := uuid.New()

	h.Claim(bookingID)

	require.NotNil(t, h.BookingID)
	assert.Equal(t, bookingID, *h.BookingID)
	assert.Nil(t, h.ExpiresAt)
	assert.False(t, h.IsExpired(now.Add(24*time.Hour)))
}

func TestHoldRelease(t *testing.T) {
	now := time.Now().UTC()

	t.Run("active hold stops counting", func(t *testing.T) {
		h := holdExpiring(now.Add(10 * time.Minute))
		h.Release(now)
		assert.False(t, h.IsActive(now))
	})

	t.Run("claimed hold can be released", func(t *testing.T) {
		h := holdExpiring(now.Add(10 * time.Minute))
		h.Claim(uuid.New())
		h.Release(now)
		assert.False(t, h.IsActive(now))
	})

	t.Run("releasing an expired hold is a no-op", func(t *testing.T) {
		expiredAt := now.Add(-time.Hour)
		h := holdExpiring(expiredAt)
		h.Release(now)
		require.NotNil(t, h.ExpiresAt)
		assert.Equal(t, expiredAt, *h.ExpiresAt)
	})

	t.Run("release is idempotent", func(t *testing.T) {
		h := holdExpiring(now.Add(10 * time.Minute))
		h.Release(now)
		first := *h.ExpiresAt
		h.Release(now)
		assert.Equal(t, first, *h.ExpiresAt)
	})
}

func TestHoldExtend(t *testing.T) {
	now := time.Now().UTC()
	ttl := 15 * time.Minute

	t.Run("active hold extends", func(t *testing.T) {
		h := holdExpiring(now.Add(2 * time.Minute))
		require.True(t, h.Extend(now, ttl))
		assert.Equal(t, now.Add(ttl), *h.ExpiresAt)
	})

	t.Run("expired hold does not extend", func(t *testing.T) {
		h := holdExpiring(now.Add(-time.Minute))
		assert.False(t, h.Extend(now, ttl))
	})

	t.Run("claimed hold does not extend", func(t *testing.T) {
		h := holdExpiring(now.Add(2 * time.Minute))
		h.Claim(uuid.New())
		assert.False(t, h.Extend(now, ttl))
		assert.Nil(t, h.ExpiresAt)
	})
}
