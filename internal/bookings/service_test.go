package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"tourly/internal/catalog"
	"tourly/internal/gateway"
	"tourly/internal/holds"
	"tourly/internal/notifications"
	"tourly/internal/payments"
	"tourly/internal/refunds"
	"tourly/internal/shared/apperror"
	"tourly/internal/users"
	"tourly/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory fakes ---

type fakeRepo struct {
	bookings map[uuid.UUID]*Booking
	rosters  map[uuid.UUID][]BookingPassenger
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		bookings: make(map[uuid.UUID]*Booking),
		rosters:  make(map[uuid.UUID][]BookingPassenger),
	}
}

func (r *fakeRepo) Create(_ context.Context, b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeRepo) GetByIDWithItems(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]Booking, int64, error) {
	var out []Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) Update(_ context.Context, b *Booking) error {
	if _, ok := r.bookings[b.ID]; !ok {
		return ErrBookingNotFound
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, expected, next Status, _ map[string]interface{}) error {
	b, ok := r.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	if b.Status != expected {
		return ErrStaleTransition
	}
	b.Status = next
	return nil
}

func (r *fakeRepo) ReplacePassengers(_ context.Context, itemID uuid.UUID, passengers []BookingPassenger) error {
	r.rosters[itemID] = passengers
	return nil
}

func (r *fakeRepo) FindAwaitingSupplierNotification(_ context.Context, updatedBefore time.Time) ([]Booking, error) {
	var out []Booking
	for _, b := range r.bookings {
		if b.Status == StatusWaitingSupplier && !b.IsSupplierNotified && b.UpdatedAt.Before(updatedBefore) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindOverdueSupplierResponses(_ context.Context, notifiedBefore time.Time) ([]Booking, error) {
	var out []Booking
	for _, b := range r.bookings {
		if b.Status == StatusWaitingSupplier && b.IsSupplierNotified &&
			b.SupplierNotifiedAt != nil && b.SupplierNotifiedAt.Before(notifiedBefore) {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeHolds struct {
	holds map[uuid.UUID]*holds.Hold
}

func newFakeHolds() *fakeHolds {
	return &fakeHolds{holds: make(map[uuid.UUID]*holds.Hold)}
}

func (m *fakeHolds) add(h *holds.Hold) uuid.UUID {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	m.holds[h.ID] = h
	return h.ID
}

func (m *fakeHolds) PlaceHold(_ context.Context, sessionID, userID uuid.UUID, quantity, _ int) (*holds.Hold, error) {
	expires := time.Now().UTC().Add(15 * time.Minute)
	h := &holds.Hold{ID: uuid.New(), SessionID: sessionID, UserID: userID, Quantity: quantity, ExpiresAt: &expires}
	m.holds[h.ID] = h
	return h, nil
}

func (m *fakeHolds) GetHold(_ context.Context, id uuid.UUID) (*holds.Hold, error) {
	h, ok := m.holds[id]
	if !ok {
		return nil, holds.ErrHoldNotFound
	}
	return h, nil
}

func (m *fakeHolds) ClaimHold(_ context.Context, id, bookingID uuid.UUID) error {
	h, ok := m.holds[id]
	if !ok {
		return holds.ErrHoldNotFound
	}
	h.Claim(bookingID)
	return nil
}

func (m *fakeHolds) ReleaseHold(_ context.Context, id uuid.UUID) error {
	h, ok := m.holds[id]
	if !ok {
		return holds.ErrHoldNotFound
	}
	h.Release(time.Now().UTC())
	return nil
}

func (m *fakeHolds) ExtendHold(_ context.Context, id uuid.UUID) (*holds.Hold, error) {
	h, ok := m.holds[id]
	if !ok {
		return nil, holds.ErrHoldNotFound
	}
	h.Extend(time.Now().UTC(), 15*time.Minute)
	return h, nil
}

func (m *fakeHolds) AvailableSeats(_ context.Context, _ uuid.UUID, capacity int) (int, error) {
	return capacity, nil
}

type fakeVault struct {
	chargeErr  error
	refundErr  error
	charges    []payments.ChargeRequest
	refunds    []payments.RefundRequest
	nextCharge string
}

func (v *fakeVault) Charge(_ context.Context, req payments.ChargeRequest) (string, error) {
	if v.chargeErr != nil {
		return "", v.chargeErr
	}
	v.charges = append(v.charges, req)
	if v.nextCharge == "" {
		v.nextCharge = "ch_test_1"
	}
	return v.nextCharge, nil
}

func (v *fakeVault) Refund(_ context.Context, req payments.RefundRequest) error {
	if v.refundErr != nil {
		return v.refundErr
	}
	v.refunds = append(v.refunds, req)
	return nil
}

type fakeMethods struct {
	methods  map[uuid.UUID]*payments.PaymentMethod
	profiles map[uuid.UUID]*payments.PaymentProfile
}

func newFakeMethods() *fakeMethods {
	return &fakeMethods{
		methods:  make(map[uuid.UUID]*payments.PaymentMethod),
		profiles: make(map[uuid.UUID]*payments.PaymentProfile),
	}
}

func (f *fakeMethods) ListEnabledMethods(_ context.Context) ([]payments.PaymentMethod, error) {
	var out []payments.PaymentMethod
	for _, m := range f.methods {
		if m.Enabled {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMethods) GetMethodByID(_ context.Context, id uuid.UUID) (*payments.PaymentMethod, error) {
	m, ok := f.methods[id]
	if !ok {
		return nil, payments.ErrMethodNotFound
	}
	return m, nil
}

func (f *fakeMethods) GetMethodByCode(_ context.Context, code string) (*payments.PaymentMethod, error) {
	for _, m := range f.methods {
		if m.Code == code {
			return m, nil
		}
	}
	return nil, payments.ErrMethodNotFound
}

func (f *fakeMethods) GetProfileByID(_ context.Context, id uuid.UUID) (*payments.PaymentProfile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, payments.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeMethods) GetProfilesByUser(_ context.Context, userID uuid.UUID) ([]payments.PaymentProfile, error) {
	var out []payments.PaymentProfile
	for _, p := range f.profiles {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeMethods) CreateProfile(_ context.Context, p *payments.PaymentProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.profiles[p.ID] = p
	return nil
}

type fakeRefunds struct {
	policies map[uuid.UUID]*refunds.RefundPolicy
}

func (f *fakeRefunds) GetPolicyByID(_ context.Context, id uuid.UUID) (*refunds.RefundPolicy, error) {
	p, ok := f.policies[id]
	if !ok {
		return nil, refunds.ErrPolicyNotFound
	}
	return p, nil
}

func (f *fakeRefunds) CreatePolicy(_ context.Context, p *refunds.RefundPolicy) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.policies[p.ID] = p
	return nil
}

type fakeCatalog struct {
	tours    map[uuid.UUID]*catalog.Tour
	variants map[uuid.UUID]*catalog.Variant
	sessions map[uuid.UUID]*catalog.Session
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		tours:    make(map[uuid.UUID]*catalog.Tour),
		variants: make(map[uuid.UUID]*catalog.Variant),
		sessions: make(map[uuid.UUID]*catalog.Session),
	}
}

func (f *fakeCatalog) GetTourByID(_ context.Context, id uuid.UUID) (*catalog.Tour, error) {
	t, ok := f.tours[id]
	if !ok {
		return nil, catalog.ErrTourNotFound
	}
	return t, nil
}

func (f *fakeCatalog) ListTours(_ context.Context, _, _ int) ([]catalog.Tour, int64, error) {
	return nil, 0, nil
}

func (f *fakeCatalog) GetVariantByID(_ context.Context, id uuid.UUID) (*catalog.Variant, error) {
	v, ok := f.variants[id]
	if !ok {
		return nil, catalog.ErrVariantNotFound
	}
	return v, nil
}

func (f *fakeCatalog) GetVariantWithPricing(ctx context.Context, id uuid.UUID) (*catalog.Variant, error) {
	return f.GetVariantByID(ctx, id)
}

func (f *fakeCatalog) GetSessionByID(_ context.Context, id uuid.UUID) (*catalog.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, catalog.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeCatalog) GetSessionByVariantAndDate(_ context.Context, variantID uuid.UUID, date time.Time) (*catalog.Session, error) {
	for _, s := range f.sessions {
		if s.VariantID == variantID && s.Date.Equal(date) {
			return s, nil
		}
	}
	return nil, catalog.ErrSessionNotFound
}

func (f *fakeCatalog) CreateSession(_ context.Context, s *catalog.Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeCatalog) ListSessionsByVariant(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]catalog.Session, error) {
	return nil, nil
}

func (f *fakeCatalog) UpdateSessionStatus(_ context.Context, id uuid.UUID, status catalog.SessionStatus) error {
	s, ok := f.sessions[id]
	if !ok {
		return catalog.ErrSessionNotFound
	}
	s.Status = status
	return nil
}

func (f *fakeCatalog) GetPassengerTypesByIDs(_ context.Context, _ []uuid.UUID) ([]catalog.PassengerType, error) {
	return nil, nil
}

type fakeUsers struct {
	users map[uuid.UUID]*users.User
}

func (f *fakeUsers) CreateUser(_ context.Context, u *users.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, _ string) (*users.User, error) {
	return nil, users.ErrUserNotFound
}

func (f *fakeUsers) EmailExists(_ context.Context, _ string) (bool, error) { return false, nil }

func (f *fakeUsers) UpdateUserPassword(_ context.Context, _ uuid.UUID, _ string) error { return nil }

type fakeQueue struct {
	messages []*notifications.Message
}

func (q *fakeQueue) Enqueue(_ context.Context, msg *notifications.Message) error {
	q.messages = append(q.messages, msg)
	return nil
}

func (q *fakeQueue) Close() error { return nil }

func (q *fakeQueue) templates() []notifications.Template {
	out := make([]notifications.Template, 0, len(q.messages))
	for _, m := range q.messages {
		out = append(out, m.Template)
	}
	return out
}

// --- fixture ---

type fixture struct {
	svc     Service
	repo    *fakeRepo
	holds   *fakeHolds
	vault   *fakeVault
	methods *fakeMethods
	refunds *fakeRefunds
	catalog *fakeCatalog
	queue   *fakeQueue

	userID     uuid.UUID
	supplierID uuid.UUID
	adultID    uuid.UUID
	tourID     uuid.UUID
	variantID  uuid.UUID
	sessionID  uuid.UUID
	policyID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:       newFakeRepo(),
		holds:      newFakeHolds(),
		vault:      &fakeVault{},
		methods:    newFakeMethods(),
		refunds:    &fakeRefunds{policies: make(map[uuid.UUID]*refunds.RefundPolicy)},
		catalog:    newFakeCatalog(),
		queue:      &fakeQueue{},
		userID:     uuid.New(),
		supplierID: uuid.New(),
		adultID:    uuid.New(),
	}

	policy := &refunds.RefundPolicy{
		ID:   uuid.New(),
		Name: "Standard",
		Rules: []refunds.RefundRule{
			{BeforeHours: 72, FeePct: 0},
			{BeforeHours: 24, FeePct: 50},
		},
	}
	require.NoError(t, f.refunds.CreatePolicy(context.Background(), policy))
	f.policyID = policy.ID

	tour := &catalog.Tour{ID: uuid.New(), Name: "City Walk", OwnerID: f.supplierID, Status: catalog.TourPublished}
	f.catalog.tours[tour.ID] = tour
	f.tourID = tour.ID

	variant := &catalog.Variant{
		ID:              uuid.New(),
		TourID:          tour.ID,
		Name:            "Morning",
		CapacityPerSlot: 10,
		CurrencyCode:    "VND",
		RefundPolicyID:  &policy.ID,
	}
	f.catalog.variants[variant.ID] = variant
	f.variantID = variant.ID

	start := "08:00"
	session := &catalog.Session{
		ID:        uuid.New(),
		VariantID: variant.ID,
		Date:      time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour),
		StartTime: &start,
		Status:    catalog.SessionOpen,
	}
	f.catalog.sessions[session.ID] = session
	f.sessionID = session.ID

	userRepo := &fakeUsers{users: map[uuid.UUID]*users.User{
		f.userID: {ID: f.userID, Email: "customer@example.com", Role: users.RoleUser},
	}}

	f.svc = NewService(f.repo, f.holds, f.vault, f.methods, f.refunds, f.catalog, userRepo, f.queue, logger.GetDefault())
	return f
}

// newBooking seeds a booking with a live hold for two adults at 500000 each.
func (f *fixture) newBooking(t *testing.T, status Status) *Booking {
	t.Helper()

	expires := time.Now().UTC().Add(15 * time.Minute)
	holdID := f.holds.add(&holds.Hold{
		SessionID: f.sessionID,
		UserID:    f.userID,
		Quantity:  2,
		ExpiresAt: &expires,
	})

	booking := &Booking{
		Reference:     NewReference(),
		UserID:        f.userID,
		VariantID:     f.variantID,
		HoldID:        holdID,
		Status:        status,
		PaymentStatus: PaymentUnpaid,
		CurrencyCode:  "VND",
		Items: []BookingItem{
			{
				ID:              uuid.New(),
				VariantID:       f.variantID,
				SessionID:       f.sessionID,
				PassengerTypeID: f.adultID,
				Quantity:        2,
				UnitPrice:       500000,
				TotalAmount:     1000000,
			},
		},
	}
	booking.RecalcTotal()
	require.NoError(t, f.repo.Create(context.Background(), booking))
	return booking
}

func (f *fixture) offlineMethod(maxAmount float64) uuid.UUID {
	id := uuid.New()
	f.methods.methods[id] = &payments.PaymentMethod{
		ID: id, Code: "pay_at_office", Name: "Pay at office",
		Kind: payments.MethodOffline, RuleMax: &maxAmount, Enabled: true,
	}
	return id
}

func (f *fixture) cardMethod() (methodID, profileID uuid.UUID) {
	methodID = uuid.New()
	f.methods.methods[methodID] = &payments.PaymentMethod{
		ID: methodID, Code: "stored_card", Name: "Saved card",
		Kind: payments.MethodCard, Enabled: true,
	}
	profileID = uuid.New()
	f.methods.profiles[profileID] = &payments.PaymentProfile{
		ID: profileID, UserID: f.userID, CustomerRef: "cus_abc",
	}
	return methodID, profileID
}

func contactReq() ContactRequest {
	return ContactRequest{
		Name:  "An Nguyen",
		Email: "an@example.com",
		Phone: "+84901234567",
	}
}

// --- tests ---

func TestUpdateContactAdvancesToPendingPayment(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingInfo)

	updated, err := f.svc.UpdateContact(context.Background(), f.userID, b.ID, contactReq())
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, updated.Status)
	assert.Equal(t, "An Nguyen", updated.ContactName)
	assert.Equal(t, 1000000.0, updated.TotalAmount)
}

func TestUpdateContactRejectsExpiredHold(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingInfo)

	past := time.Now().UTC().Add(-time.Minute)
	f.holds.holds[b.HoldID].ExpiresAt = &past

	_, err := f.svc.UpdateContact(context.Background(), f.userID, b.ID, contactReq())
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "Your booking hold has expired")

	stored, _ := f.repo.GetByID(context.Background(), b.ID)
	assert.Equal(t, StatusPendingInfo, stored.Status)
}

func TestUpdateContactRejectsWrongOwner(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingInfo)

	_, err := f.svc.UpdateContact(context.Background(), uuid.New(), b.ID, contactReq())
	require.Error(t, err)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestUpdateContactRejectsMismatchedRoster(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingInfo)

	req := contactReq()
	req.Passengers = []PassengerRequest{
		{PassengerTypeID: f.adultID, FullName: "Only One"},
	}

	_, err := f.svc.UpdateContact(context.Background(), f.userID, b.ID, req)
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestSelectPaymentMethodWithinFence(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingPayment)
	methodID := f.offlineMethod(2000000)

	updated, err := f.svc.SelectPaymentMethod(context.Background(), f.userID, b.ID, SelectPaymentRequest{PaymentMethodID: methodID})
	require.NoError(t, err)
	assert.Equal(t, StatusPendingConfirm, updated.Status)
	require.NotNil(t, updated.PaymentMethodID)
	assert.Equal(t, methodID, *updated.PaymentMethodID)
}

func TestSelectPaymentMethodOutsideFence(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingPayment)
	methodID := f.offlineMethod(500000) // total is 1000000

	_, err := f.svc.SelectPaymentMethod(context.Background(), f.userID, b.ID, SelectPaymentRequest{PaymentMethodID: methodID})
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "not available for this amount")

	stored, _ := f.repo.GetByID(context.Background(), b.ID)
	assert.Equal(t, StatusPendingPayment, stored.Status)
}

func TestSelectPaymentMethodCardRequiresProfile(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingPayment)
	methodID, _ := f.cardMethod()

	_, err := f.svc.SelectPaymentMethod(context.Background(), f.userID, b.ID, SelectPaymentRequest{PaymentMethodID: methodID})
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestConfirmOfflineMethodClaimsHoldAndWaitsSupplier(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingConfirm)
	methodID := f.offlineMethod(2000000)
	b.PaymentMethodID = &methodID
	require.NoError(t, f.repo.Update(context.Background(), b))

	updated, err := f.svc.Confirm(context.Background(), f.userID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingSupplier, updated.Status)
	assert.Equal(t, PaymentPaid, updated.PaymentStatus)
	assert.Empty(t, f.vault.charges, "offline methods must not hit the vault")

	hold := f.holds.holds[b.HoldID]
	assert.Nil(t, hold.ExpiresAt, "claimed hold must never expire")
	require.NotNil(t, hold.BookingID)
	assert.Equal(t, b.ID, *hold.BookingID)

	assert.Contains(t, f.queue.templates(), notifications.TemplateBookingConfirmed)
	assert.Contains(t, f.queue.templates(), notifications.TemplateSupplierActionRequired)
}

func TestConfirmCardMethodChargesVault(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingConfirm)
	methodID, profileID := f.cardMethod()
	b.PaymentMethodID = &methodID
	b.PaymentProfileID = &profileID
	require.NoError(t, f.repo.Update(context.Background(), b))

	updated, err := f.svc.Confirm(context.Background(), f.userID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingSupplier, updated.Status)
	assert.Equal(t, PaymentPaid, updated.PaymentStatus)
	require.Len(t, f.vault.charges, 1)
	assert.Equal(t, 1000000.0, f.vault.charges[0].Amount)
	assert.Equal(t, "cus_abc", f.vault.charges[0].CustomerRef)
	require.NotNil(t, updated.ChargeRef)
	assert.Equal(t, "ch_test_1", *updated.ChargeRef)
}

func TestConfirmChargeFailureLeavesBookingRetryable(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingConfirm)
	methodID, profileID := f.cardMethod()
	b.PaymentMethodID = &methodID
	b.PaymentProfileID = &profileID
	require.NoError(t, f.repo.Update(context.Background(), b))
	f.vault.chargeErr = errors.New("card declined")

	_, err := f.svc.Confirm(context.Background(), f.userID, b.ID)
	require.Error(t, err)

	stored, _ := f.repo.GetByID(context.Background(), b.ID)
	assert.Equal(t, StatusPendingConfirm, stored.Status)
	assert.Equal(t, PaymentUnpaid, stored.PaymentStatus)

	hold := f.holds.holds[b.HoldID]
	assert.NotNil(t, hold.ExpiresAt, "hold must not be claimed on a failed charge")
}

func TestCancelUnpaidBookingReleasesHold(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingPayment)

	updated, err := f.svc.Cancel(context.Background(), f.userID, b.ID, "changed my mind", CancelledByUser)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Equal(t, PaymentUnpaid, updated.PaymentStatus)
	assert.Zero(t, updated.RefundedAmount)
	assert.Empty(t, f.vault.refunds)

	hold := f.holds.holds[b.HoldID]
	assert.True(t, hold.IsExpired(time.Now().UTC()))
}

func TestCancelPaidBookingByUserAppliesFeeLadder(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusWaitingSupplier)
	b.PaymentStatus = PaymentPaid
	ref := "ch_test_1"
	b.ChargeRef = &ref
	require.NoError(t, f.repo.Update(context.Background(), b))

	// Departure is 7 days out so the 72h / 0% fee rule applies.
	updated, err := f.svc.Cancel(context.Background(), f.userID, b.ID, "plans changed", CancelledByUser)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Equal(t, PaymentRefunded, updated.PaymentStatus)
	assert.Equal(t, 1000000.0, updated.RefundedAmount)
	require.Len(t, f.vault.refunds, 1)
	assert.Equal(t, 1000000.0, f.vault.refunds[0].Amount)
	assert.Contains(t, f.queue.templates(), notifications.TemplateRefundIssued)
}

func TestCancelPaidBookingInsideFeeWindow(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusWaitingSupplier)
	b.PaymentStatus = PaymentPaid
	ref := "ch_test_1"
	b.ChargeRef = &ref
	require.NoError(t, f.repo.Update(context.Background(), b))

	// Move departure to 30h out: 24h rule matches, 50% fee.
	departure := time.Now().UTC().Add(30 * time.Hour)
	start := departure.Format("15:04")
	session := f.catalog.sessions[f.sessionID]
	session.Date = departure
	session.StartTime = &start

	updated, err := f.svc.Cancel(context.Background(), f.userID, b.ID, "plans changed", CancelledByUser)
	require.NoError(t, err)
	assert.Equal(t, PaymentPartial, updated.PaymentStatus)
	assert.Equal(t, 500000.0, updated.RefundedAmount)
}

func TestCancelBySupplierRefundsInFull(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusWaitingSupplier)
	b.PaymentStatus = PaymentPaid
	ref := "ch_test_1"
	b.ChargeRef = &ref
	require.NoError(t, f.repo.Update(context.Background(), b))

	// Inside the fee window, but supplier rejection still refunds in full.
	departure := time.Now().UTC().Add(30 * time.Hour)
	start := departure.Format("15:04")
	session := f.catalog.sessions[f.sessionID]
	session.Date = departure
	session.StartTime = &start

	updated, err := f.svc.SupplierReject(context.Background(), f.supplierID, string(users.RoleSupplier), b.ID, "sold out")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Equal(t, PaymentRefunded, updated.PaymentStatus)
	assert.Equal(t, 1000000.0, updated.RefundedAmount)
}

func TestCancelTerminalBookingRejected(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusCancelled)

	_, err := f.svc.Cancel(context.Background(), f.userID, b.ID, "again", CancelledByUser)
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestSupplierAcceptConfirmsBooking(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusWaitingSupplier)
	b.PaymentStatus = PaymentPaid
	require.NoError(t, f.repo.Update(context.Background(), b))

	updated, err := f.svc.SupplierAccept(context.Background(), f.supplierID, string(users.RoleSupplier), b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
	assert.NotNil(t, updated.ConfirmedAt)
}

func TestSupplierAcceptRejectsForeignSupplier(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusWaitingSupplier)
	b.PaymentStatus = PaymentPaid
	require.NoError(t, f.repo.Update(context.Background(), b))

	_, err := f.svc.SupplierAccept(context.Background(), uuid.New(), string(users.RoleSupplier), b.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestSupplierAcceptLosesRaceToSweeper(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusWaitingSupplier)
	b.PaymentStatus = PaymentPaid
	require.NoError(t, f.repo.Update(context.Background(), b))

	// The sweeper cancels between the supplier's read and write.
	stored := f.repo.bookings[b.ID]
	stored.Status = StatusCancelled

	// Conditional update fails; re-reading reports the invalid state.
	err := f.repo.UpdateStatusIf(context.Background(), b.ID, StatusWaitingSupplier, StatusConfirmed, nil)
	assert.ErrorIs(t, err, ErrStaleTransition)

	_, err = f.svc.SupplierAccept(context.Background(), f.supplierID, string(users.RoleSupplier), b.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestNotifySupplierMarksBookingOnce(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusWaitingSupplier)

	require.NoError(t, f.svc.NotifySupplier(context.Background(), b.ID))
	stored, _ := f.repo.GetByID(context.Background(), b.ID)
	assert.True(t, stored.IsSupplierNotified)
	require.NotNil(t, stored.SupplierNotifiedAt)

	sent := len(f.queue.messages)
	require.NoError(t, f.svc.NotifySupplier(context.Background(), b.ID))
	assert.Len(t, f.queue.messages, sent, "repeat notification must be a no-op")
}

func TestSettleGatewayPaymentSuccess(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingConfirm)

	err := f.svc.SettleGatewayPayment(context.Background(), b.ID, b.ID.String()+"_1750000000000", 1000000, true)
	require.NoError(t, err)

	stored, _ := f.repo.GetByID(context.Background(), b.ID)
	assert.Equal(t, StatusWaitingSupplier, stored.Status)
	assert.Equal(t, PaymentPaid, stored.PaymentStatus)
	require.NotNil(t, stored.ChargeRef)
	assert.Equal(t, b.ID.String()+"_1750000000000", *stored.ChargeRef)

	hold := f.holds.holds[b.HoldID]
	assert.Nil(t, hold.ExpiresAt)
}

func TestSettleGatewayPaymentAmountMismatch(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingConfirm)

	err := f.svc.SettleGatewayPayment(context.Background(), b.ID, "ref", 999999, true)
	assert.ErrorIs(t, err, gateway.ErrAmountMismatch)

	stored, _ := f.repo.GetByID(context.Background(), b.ID)
	assert.Equal(t, PaymentUnpaid, stored.PaymentStatus)
}

func TestSettleGatewayPaymentAlreadySettled(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusWaitingSupplier)
	b.PaymentStatus = PaymentPaid
	require.NoError(t, f.repo.Update(context.Background(), b))

	err := f.svc.SettleGatewayPayment(context.Background(), b.ID, "ref", 1000000, true)
	assert.ErrorIs(t, err, gateway.ErrAlreadySettled)
}

func TestSettleGatewayPaymentFailureIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingConfirm)

	err := f.svc.SettleGatewayPayment(context.Background(), b.ID, "ref", 1000000, false)
	require.NoError(t, err)

	stored, _ := f.repo.GetByID(context.Background(), b.ID)
	assert.Equal(t, StatusPendingConfirm, stored.Status)
	assert.Equal(t, PaymentUnpaid, stored.PaymentStatus)
}

func TestInitiateGatewayPaymentRequiresConfirmableState(t *testing.T) {
	f := newFixture(t)
	b := f.newBooking(t, StatusPendingInfo)

	_, err := f.svc.InitiateGatewayPayment(context.Background(), f.userID, b.ID, "127.0.0.1")
	require.Error(t, err)
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}
