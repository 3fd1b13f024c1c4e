package main

import (
	"fmt"
	"log"
	"time"

	"tourly/internal/catalog"
	"tourly/internal/payments"
	"tourly/internal/refunds"
	"tourly/internal/shared/config"
	"tourly/internal/shared/database"
	"tourly/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB

	supplierID uuid.UUID
	adultID    uuid.UUID
	childID    uuid.UUID
	policyID   uuid.UUID
}

func main() {
	fmt.Println("🌱 Starting Tourly Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in dependency order.
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"booking_passengers",
		"booking_items",
		"bookings",
		"holds",
		"price_rule_prices",
		"price_rules",
		"base_prices",
		"sessions",
		"variants",
		"tours",
		"passenger_types",
		"refund_rules",
		"refund_policies",
		"payment_profiles",
		"payment_methods",
		"users",
	}
	for _, table := range tables {
		if err := s.db.PostgreSQL.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) SeedAll() error {
	if err := s.seedUsers(); err != nil {
		return err
	}
	if err := s.seedPassengerTypes(); err != nil {
		return err
	}
	if err := s.seedRefundPolicy(); err != nil {
		return err
	}
	if err := s.seedCatalog(); err != nil {
		return err
	}
	return s.seedPaymentMethods()
}

func (s *Seeder) seedUsers() error {
	hash := func(pw string) string {
		h, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		return string(h)
	}

	supplier := users.User{
		FirstName: "Sala",
		LastName:  "Travel",
		Email:     "supplier@tourly.dev",
		Password:  hash("supplier123"),
		Role:      users.RoleSupplier,
		Phone:     "+84901234567",
	}
	accounts := []users.User{
		{
			FirstName: "Admin",
			LastName:  "User",
			Email:     "admin@tourly.dev",
			Password:  hash("admin123"),
			Role:      users.RoleAdmin,
		},
		{
			FirstName: "An",
			LastName:  "Nguyen",
			Email:     "customer@tourly.dev",
			Password:  hash("customer123"),
			Role:      users.RoleUser,
			Phone:     "+84907654321",
		},
	}

	if err := s.db.PostgreSQL.Create(&supplier).Error; err != nil {
		return err
	}
	s.supplierID = supplier.ID

	for i := range accounts {
		if err := s.db.PostgreSQL.Create(&accounts[i]).Error; err != nil {
			return err
		}
	}
	fmt.Println("  👤 Users seeded")
	return nil
}

func (s *Seeder) seedPassengerTypes() error {
	adult := catalog.PassengerType{Name: "Adult", AgeMin: 12, AgeMax: 200}
	child := catalog.PassengerType{Name: "Child", AgeMin: 2, AgeMax: 11}

	if err := s.db.PostgreSQL.Create(&adult).Error; err != nil {
		return err
	}
	if err := s.db.PostgreSQL.Create(&child).Error; err != nil {
		return err
	}
	s.adultID = adult.ID
	s.childID = child.ID
	fmt.Println("  🧍 Passenger types seeded")
	return nil
}

func (s *Seeder) seedRefundPolicy() error {
	policy := refunds.RefundPolicy{
		Name: "Standard 72/24",
		Rules: []refunds.RefundRule{
			{BeforeHours: 72, FeePct: 0},
			{BeforeHours: 24, FeePct: 50},
		},
	}
	if err := s.db.PostgreSQL.Create(&policy).Error; err != nil {
		return err
	}
	s.policyID = policy.ID
	fmt.Println("  💸 Refund policy seeded")
	return nil
}

func (s *Seeder) seedCatalog() error {
	tour := catalog.Tour{
		Name:        "Ha Long Bay Day Cruise",
		Description: "Full-day cruise through the limestone karsts with lunch on board.",
		OwnerID:     s.supplierID,
		Status:      catalog.TourPublished,
	}
	if err := s.db.PostgreSQL.Create(&tour).Error; err != nil {
		return err
	}

	variant := catalog.Variant{
		TourID:          tour.ID,
		Name:            "Deluxe Cruise",
		CapacityPerSlot: 20,
		CutoffHours:     12,
		TaxInclusive:    true,
		CurrencyCode:    "VND",
		RefundPolicyID:  &s.policyID,
	}
	if err := s.db.PostgreSQL.Create(&variant).Error; err != nil {
		return err
	}

	basePrices := []catalog.BasePrice{
		{VariantID: variant.ID, PassengerTypeID: s.adultID, Amount: 500000},
		{VariantID: variant.ID, PassengerTypeID: s.childID, Amount: 300000},
	}
	if err := s.db.PostgreSQL.Create(&basePrices).Error; err != nil {
		return err
	}

	// Weekend surcharge: Saturday and Sunday for the next three months.
	now := time.Now().UTC()
	weekendMask := uint8(1<<uint(time.Saturday) | 1<<uint(time.Sunday))
	rule := catalog.PriceRule{
		VariantID:   variant.ID,
		Name:        "Weekend surcharge",
		StartDate:   now,
		EndDate:     now.AddDate(0, 3, 0),
		WeekdayMask: weekendMask,
		Kind:        catalog.PriceRuleDelta,
		Priority:    10,
		Prices: []catalog.PriceRulePrice{
			{PassengerTypeID: s.adultID, Amount: 100000},
			{PassengerTypeID: s.childID, Amount: 50000},
		},
	}
	if err := s.db.PostgreSQL.Create(&rule).Error; err != nil {
		return err
	}

	// Schedule sessions for the coming two weeks.
	for day := 1; day <= 14; day++ {
		start := "08:00"
		end := "17:00"
		session := catalog.Session{
			VariantID: variant.ID,
			Date:      now.AddDate(0, 0, day).Truncate(24 * time.Hour),
			StartTime: &start,
			EndTime:   &end,
			Status:    catalog.SessionOpen,
		}
		if err := s.db.PostgreSQL.Create(&session).Error; err != nil {
			return err
		}
	}

	fmt.Println("  🏝️  Catalog seeded")
	return nil
}

func (s *Seeder) seedPaymentMethods() error {
	maxOffline := 2000000.0
	methods := []payments.PaymentMethod{
		{Code: "gateway_redirect", Name: "Pay online (VNPay)", Kind: payments.MethodOffline, Enabled: true},
		{Code: "stored_card", Name: "Saved card", Kind: payments.MethodCard, Enabled: true},
		{Code: "pay_at_office", Name: "Pay at office", Kind: payments.MethodOffline, RuleMax: &maxOffline, Enabled: true},
	}
	if err := s.db.PostgreSQL.Create(&methods).Error; err != nil {
		return err
	}
	fmt.Println("  💳 Payment methods seeded")
	return nil
}
