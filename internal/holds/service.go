package holds

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Manager owns the hold lifecycle: placing temporary holds against session
// capacity, claiming them for paid bookings and releasing them back.
type Manager interface {
	PlaceHold(ctx context.Context, sessionID, userID uuid.UUID, quantity, capacity int) (*Hold, error)
	GetHold(ctx context.Context, id uuid.UUID) (*Hold, error)
	ClaimHold(ctx context.Context, id, bookingID uuid.UUID) error
	ReleaseHold(ctx context.Context, id uuid.UUID) error
	ExtendHold(ctx context.Context, id uuid.UUID) (*Hold, error)
	AvailableSeats(ctx context.Context, sessionID uuid.UUID, capacity int) (int, error)
}

type manager struct {
	repo Repository
	ttl  time.Duration
}

func NewManager(repo Repository, ttl time.Duration) Manager {
	return &manager{repo: repo, ttl: ttl}
}

func (m *manager) PlaceHold(ctx context.Context, sessionID, userID uuid.UUID, quantity, capacity int) (*Hold, error) {
	expiresAt := time.Now().UTC().Add(m.ttl)
	hold := &Hold{
		SessionID: sessionID,
		UserID:    userID,
		Quantity:  quantity,
		ExpiresAt: &expiresAt,
	}
	if err := m.repo.CreateWithCapacityCheck(ctx, hold, capacity); err != nil {
		return nil, err
	}
	return hold, nil
}

func (m *manager) GetHold(ctx context.Context, id uuid.UUID) (*Hold, error) {
	return m.repo.GetByID(ctx, id)
}

func (m *manager) ClaimHold(ctx context.Context, id, bookingID uuid.UUID) error {
	hold, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	hold.Claim(bookingID)
	return m.repo.Update(ctx, hold)
}

func (m *manager) ReleaseHold(ctx context.Context, id uuid.UUID) error {
	hold, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	hold.Release(time.Now().UTC())
	return m.repo.Update(ctx, hold)
}

func (m *manager) ExtendHold(ctx context.Context, id uuid.UUID) (*Hold, error) {
	hold, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !hold.Extend(time.Now().UTC(), m.ttl) {
		return hold, nil
	}
	if err := m.repo.Update(ctx, hold); err != nil {
		return nil, err
	}
	return hold, nil
}

// AvailableSeats implements the catalog availability hook: remaining seats
// are the capacity minus all currently counting held quantity.
func (m *manager) AvailableSeats(ctx context.Context, sessionID uuid.UUID, capacity int) (int, error) {
	held, err := m.repo.SumActiveQuantity(ctx, sessionID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	available := capacity - held
	if available < 0 {
		available = 0
	}
	return available, nil
}
