package cleanup

import (
	"context"
	"time"

	"tourly/internal/bookings"
	"tourly/internal/shared/config"
	"tourly/pkg/logger"
)

// Sweeper periodically advances bookings stuck in WAITING_SUPPLIER through
// two escalating deadlines: first the supplier is pinged, and one threshold
// later the booking is auto-cancelled with a full refund.
type Sweeper struct {
	bookings  bookings.Service
	repo      bookings.Repository
	interval  time.Duration
	threshold time.Duration
	logger    *logger.Logger
	done      chan struct{}
}

func NewSweeper(service bookings.Service, repo bookings.Repository, cfg config.CleanupConfig, log *logger.Logger) *Sweeper {
	return &Sweeper{
		bookings:  service,
		repo:      repo,
		interval:  cfg.Interval,
		threshold: cfg.SupplierResponseThreshold,
		logger:    log,
		done:      make(chan struct{}),
	}
}

// Start launches the sweep loop. Call Stop to shut it down.
func (s *Sweeper) Start() {
	go s.run()
	s.logger.Info("cleanup sweeper started",
		"interval", s.interval.String(),
		"threshold", s.threshold.String(),
	)
}

func (s *Sweeper) Stop() {
	close(s.done)
	s.logger.Info("cleanup sweeper stopped")
}

func (s *Sweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.done:
			return
		}
	}
}

// Sweep runs both stages once. Failures are isolated per booking; one bad
// booking never aborts the rest of the pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	s.notifyStale(ctx, now)
	s.cancelOverdue(ctx, now)
}

// notifyStale is stage one: suppliers whose bookings sat unanswered past
// the threshold get an escalation notification.
func (s *Sweeper) notifyStale(ctx context.Context, now time.Time) {
	stale, err := s.repo.FindAwaitingSupplierNotification(ctx, now.Add(-s.threshold))
	if err != nil {
		s.logger.ErrorWithContext(ctx, "sweep stage 1 query failed", err, nil)
		return
	}

	for _, booking := range stale {
		if err := s.bookings.NotifySupplier(ctx, booking.ID); err != nil {
			s.logger.ErrorWithContext(ctx, "failed to notify supplier", err, map[string]interface{}{
				"booking_id": booking.ID.String(),
			})
			continue
		}
		s.logger.InfoWithContext(ctx, "supplier notified of stale booking", map[string]interface{}{
			"booking_id": booking.ID.String(),
			"reference":  booking.Reference,
		})
	}
}

// cancelOverdue is stage two: bookings the supplier still ignored a full
// threshold after notification are force-cancelled and fully refunded.
func (s *Sweeper) cancelOverdue(ctx context.Context, now time.Time) {
	overdue, err := s.repo.FindOverdueSupplierResponses(ctx, now.Add(-s.threshold))
	if err != nil {
		s.logger.ErrorWithContext(ctx, "sweep stage 2 query failed", err, nil)
		return
	}

	for _, booking := range overdue {
		err := s.bookings.CancelBySystem(ctx, booking.ID, "Supplier did not respond in time")
		if err != nil {
			s.logger.ErrorWithContext(ctx, "failed to auto-cancel booking", err, map[string]interface{}{
				"booking_id": booking.ID.String(),
			})
			continue
		}
		s.logger.InfoWithContext(ctx, "booking auto-cancelled after supplier timeout", map[string]interface{}{
			"booking_id": booking.ID.String(),
			"reference":  booking.Reference,
		})
	}
}
