package checkout

import (
	"context"
	"errors"
	"time"

	"tourly/internal/bookings"
	"tourly/internal/catalog"
	"tourly/internal/holds"
	"tourly/internal/pricing"
	"tourly/internal/shared/apperror"
	"tourly/internal/users"

	"github.com/google/uuid"
)

// Step priorities. Gaps leave room for inserting steps (e.g. a promotion
// code check between pricing and item creation) without renumbering.
const (
	prioValidateRequester = 10
	prioValidateProduct   = 20
	prioResolveSession    = 30
	prioCreateHold        = 40
	prioPaymentContext    = 50
	prioCalculatePrice    = 60
	prioCreateItems       = 70
	prioCreateBooking     = 80
)

type stepDeps struct {
	users          users.Repository
	catalogRepo    catalog.Repository
	catalogService catalog.Service
	holds          holds.Manager
	bookings       bookings.Repository
	defaultCap     int
}

func buildSteps(deps stepDeps) []Step {
	return []Step{
		{Name: "validate requester", Priority: prioValidateRequester, Execute: deps.validateRequester},
		{Name: "validate product", Priority: prioValidateProduct, Execute: deps.validateProduct},
		{Name: "resolve session", Priority: prioResolveSession, Execute: deps.resolveSession},
		{Name: "create inventory hold", Priority: prioCreateHold, Execute: deps.createHold},
		{Name: "resolve payment context", Priority: prioPaymentContext, Execute: deps.resolvePaymentContext},
		{Name: "calculate price", Priority: prioCalculatePrice, Execute: deps.calculatePrice},
		{Name: "create booking items", Priority: prioCreateItems, Execute: deps.createItems},
		{Name: "create booking", Priority: prioCreateBooking, Execute: deps.createBooking},
	}
}

func (d stepDeps) validateRequester(ctx context.Context, pc *PurchaseContext) error {
	user, err := d.users.GetUserByID(ctx, pc.UserID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return apperror.NotFound("User not found")
		}
		return err
	}
	pc.User = user
	return nil
}

func (d stepDeps) validateProduct(ctx context.Context, pc *PurchaseContext) error {
	variant, err := d.catalogRepo.GetVariantWithPricing(ctx, pc.Request.VariantID)
	if err != nil {
		if errors.Is(err, catalog.ErrVariantNotFound) {
			return apperror.NotFound("Tour variant not found")
		}
		return err
	}
	pc.Variant = variant
	return nil
}

func (d stepDeps) resolveSession(ctx context.Context, pc *PurchaseContext) error {
	date, err := time.Parse("2006-01-02", pc.Request.Date)
	if err != nil {
		return apperror.BadRequest("Invalid travel date")
	}
	session, err := d.catalogService.ResolveSession(ctx, pc.Variant.ID, date)
	if err != nil {
		return err
	}
	if err := d.catalogService.CheckBookable(ctx, pc.Variant, session, time.Now().UTC()); err != nil {
		return apperror.BadRequest(err.Error())
	}
	pc.Session = session
	return nil
}

func (d stepDeps) createHold(ctx context.Context, pc *PurchaseContext) error {
	capacity := pc.Session.EffectiveCapacity(pc.Variant)
	if capacity <= 0 {
		capacity = d.defaultCap
	}
	hold, err := d.holds.PlaceHold(ctx, pc.Session.ID, pc.UserID, pc.TotalQuantity(), capacity)
	if err != nil {
		switch {
		case errors.Is(err, holds.ErrNotEnoughSeats):
			return apperror.BadRequest("Not enough seats left for this departure.")
		case errors.Is(err, holds.ErrSessionNotOpen):
			return apperror.BadRequest("This departure is not open for booking.")
		case errors.Is(err, holds.ErrSessionMissing):
			return apperror.NotFound("Session not found")
		}
		return err
	}
	pc.Hold = hold
	return nil
}

// resolvePaymentContext attaches payment placeholders. Method and profile
// selection is deferred to a later user action, so this step only reserves
// the slot in the context contract.
func (d stepDeps) resolvePaymentContext(ctx context.Context, pc *PurchaseContext) error {
	return nil
}

func (d stepDeps) calculatePrice(ctx context.Context, pc *PurchaseContext) error {
	if pc.Variant == nil {
		return apperror.BadRequest("Product was not resolved")
	}
	date, _ := time.Parse("2006-01-02", pc.Request.Date)
	pc.Prices = pricing.Resolve(pc.Variant, date)
	return nil
}

func (d stepDeps) createItems(ctx context.Context, pc *PurchaseContext) error {
	typeIDs := make([]uuid.UUID, 0, len(pc.Request.Items))
	for _, item := range pc.Request.Items {
		typeIDs = append(typeIDs, item.PassengerTypeID)
	}
	types, err := d.catalogRepo.GetPassengerTypesByIDs(ctx, typeIDs)
	if err != nil {
		return err
	}
	pc.PassengerTypes = make(map[uuid.UUID]catalog.PassengerType, len(types))
	for _, t := range types {
		pc.PassengerTypes[t.ID] = t
	}

	priced := make(map[uuid.UUID]float64, len(pc.Prices))
	for _, tp := range pc.Prices {
		if tp.FinalPrice != nil {
			priced[tp.PassengerTypeID] = *tp.FinalPrice
		}
	}

	items := make([]bookings.BookingItem, 0, len(pc.Request.Items))
	for _, req := range pc.Request.Items {
		if _, ok := pc.PassengerTypes[req.PassengerTypeID]; !ok {
			return apperror.NotFound("Passenger type not found")
		}
		unitPrice, ok := priced[req.PassengerTypeID]
		if !ok {
			return apperror.BadRequest("No price available for the selected passenger type on this date.")
		}
		items = append(items, bookings.BookingItem{
			VariantID:       pc.Variant.ID,
			SessionID:       pc.Session.ID,
			PassengerTypeID: req.PassengerTypeID,
			Quantity:        req.Quantity,
			UnitPrice:       unitPrice,
			TotalAmount:     unitPrice * float64(req.Quantity),
		})
	}
	pc.Items = items
	return nil
}

func (d stepDeps) createBooking(ctx context.Context, pc *PurchaseContext) error {
	booking := &bookings.Booking{
		Reference:     bookings.NewReference(),
		UserID:        pc.UserID,
		VariantID:     pc.Variant.ID,
		HoldID:        pc.Hold.ID,
		Status:        bookings.StatusPendingInfo,
		PaymentStatus: bookings.PaymentUnpaid,
		CurrencyCode:  pc.Variant.CurrencyCode,
		Items:         pc.Items,
	}
	booking.RecalcTotal()

	if err := d.bookings.Create(ctx, booking); err != nil {
		return err
	}
	pc.Booking = booking
	return nil
}
