package checkout

import (
	"context"

	"tourly/internal/bookings"
	"tourly/internal/catalog"
	"tourly/internal/holds"
	"tourly/internal/shared/config"
	"tourly/internal/users"
	"tourly/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	// Purchase runs the full pipeline and returns the created booking.
	Purchase(ctx context.Context, userID uuid.UUID, req PurchaseRequest) (*bookings.Booking, error)
}

type service struct {
	pipeline *Pipeline
	logger   *logger.Logger
}

func NewService(
	cfg *config.Config,
	userRepo users.Repository,
	catalogRepo catalog.Repository,
	catalogService catalog.Service,
	holdManager holds.Manager,
	bookingRepo bookings.Repository,
	log *logger.Logger,
) Service {
	deps := stepDeps{
		users:          userRepo,
		catalogRepo:    catalogRepo,
		catalogService: catalogService,
		holds:          holdManager,
		bookings:       bookingRepo,
		defaultCap:     cfg.Checkout.DefaultSessionCapacity,
	}
	return &service{
		pipeline: NewPipeline(log, buildSteps(deps)...),
		logger:   log,
	}
}

func (s *service) Purchase(ctx context.Context, userID uuid.UUID, req PurchaseRequest) (*bookings.Booking, error) {
	pc := &PurchaseContext{Request: req, UserID: userID}
	if err := s.pipeline.Run(ctx, pc); err != nil {
		return nil, err
	}

	s.logger.LogBookingCreated(ctx, pc.Booking.ID.String(), pc.Variant.ID.String(), userID.String())
	return pc.Booking, nil
}
