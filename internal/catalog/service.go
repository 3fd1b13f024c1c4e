package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotBookable = errors.New("session is not open for booking")
	ErrInsideCutoff       = errors.New("departure is inside the booking cutoff window")
)

// AvailabilityService reports remaining seats for a session. Implemented by
// the holds package; injected after construction to avoid an import cycle.
type AvailabilityService interface {
	AvailableSeats(ctx context.Context, sessionID uuid.UUID, capacity int) (int, error)
}

// SessionAvailability pairs a session with its remaining seat count.
type SessionAvailability struct {
	Session   Session `json:"session"`
	Capacity  int     `json:"capacity"`
	Available int     `json:"available"`
}

type Service interface {
	GetTour(ctx context.Context, id uuid.UUID) (*Tour, error)
	ListTours(ctx context.Context, limit, offset int) ([]Tour, int64, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error)
	GetVariantWithPricing(ctx context.Context, id uuid.UUID) (*Variant, error)
	// ResolveSession returns the session for a variant on a date, creating
	// one lazily when the variant has no explicit schedule entry.
	ResolveSession(ctx context.Context, variantID uuid.UUID, date time.Time) (*Session, error)
	ListSessions(ctx context.Context, variantID uuid.UUID, from, to time.Time) ([]SessionAvailability, error)
	// CheckBookable validates status and cutoff for a prospective booking.
	CheckBookable(ctx context.Context, variant *Variant, session *Session, now time.Time) error
	SetAvailabilityService(availability AvailabilityService)
}

type service struct {
	repo         Repository
	availability AvailabilityService
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) SetAvailabilityService(availability AvailabilityService) {
	s.availability = availability
}

func (s *service) GetTour(ctx context.Context, id uuid.UUID) (*Tour, error) {
	return s.repo.GetTourByID(ctx, id)
}

func (s *service) ListTours(ctx context.Context, limit, offset int) ([]Tour, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTours(ctx, limit, offset)
}

func (s *service) GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error) {
	return s.repo.GetVariantByID(ctx, id)
}

func (s *service) GetVariantWithPricing(ctx context.Context, id uuid.UUID) (*Variant, error) {
	return s.repo.GetVariantWithPricing(ctx, id)
}

func (s *service) ResolveSession(ctx context.Context, variantID uuid.UUID, date time.Time) (*Session, error) {
	session, err := s.repo.GetSessionByVariantAndDate(ctx, variantID, date)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	// No schedule entry for that day; materialize one so holds and
	// bookings have a row to attach to.
	session = &Session{
		VariantID: variantID,
		Date:      time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Status:    SessionOpen,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		// Lost a create race; the winner's row is what we want.
		if existing, lookupErr := s.repo.GetSessionByVariantAndDate(ctx, variantID, date); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return session, nil
}

func (s *service) ListSessions(ctx context.Context, variantID uuid.UUID, from, to time.Time) ([]SessionAvailability, error) {
	variant, err := s.repo.GetVariantByID(ctx, variantID)
	if err != nil {
		return nil, err
	}

	sessions, err := s.repo.ListSessionsByVariant(ctx, variantID, from, to)
	if err != nil {
		return nil, err
	}

	result := make([]SessionAvailability, 0, len(sessions))
	for _, session := range sessions {
		capacity := session.EffectiveCapacity(variant)
		available := capacity
		if s.availability != nil {
			if remaining, err := s.availability.AvailableSeats(ctx, session.ID, capacity); err == nil {
				available = remaining
			}
		}
		result = append(result, SessionAvailability{
			Session:   session,
			Capacity:  capacity,
			Available: available,
		})
	}
	return result, nil
}

func (s *service) CheckBookable(ctx context.Context, variant *Variant, session *Session, now time.Time) error {
	if !session.Status.IsBookable() {
		return ErrSessionNotBookable
	}
	if variant.CutoffHours > 0 {
		cutoff := session.DepartureAt().Add(-time.Duration(variant.CutoffHours) * time.Hour)
		if !now.Before(cutoff) {
			return ErrInsideCutoff
		}
	}
	return nil
}
