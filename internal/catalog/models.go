package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Tour is the top-level sellable product owned by a supplier.
type Tour struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string     `json:"name" gorm:"not null;size:255"`
	Description string     `json:"description" gorm:"type:text"`
	OwnerID     uuid.UUID  `json:"owner_id" gorm:"type:uuid;index;not null"`
	Status      TourStatus `json:"status" gorm:"type:varchar(20);default:'published'"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Variants []Variant `json:"variants,omitempty" gorm:"foreignKey:TourID;constraint:OnDelete:CASCADE;"`
}

// Variant is a sellable configuration of a tour. Capacity, cutoff and
// pricing all hang off the variant, not the tour.
type Variant struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TourID          uuid.UUID  `json:"tour_id" gorm:"type:uuid;index;not null"`
	Name            string     `json:"name" gorm:"not null;size:255"`
	CapacityPerSlot int        `json:"capacity_per_slot" gorm:"not null;check:capacity_per_slot > 0"`
	CutoffHours     int        `json:"cutoff_hours" gorm:"default:0"`
	TaxInclusive    bool       `json:"tax_inclusive" gorm:"default:true"`
	CurrencyCode    string     `json:"currency_code" gorm:"type:varchar(3);default:'VND'"`
	RefundPolicyID  *uuid.UUID `json:"refund_policy_id,omitempty" gorm:"type:uuid"`
	Status          string     `json:"status" gorm:"type:varchar(20);default:'active'"`
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Tour       *Tour       `json:"tour,omitempty" gorm:"foreignKey:TourID"`
	Sessions   []Session   `json:"sessions,omitempty" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE;"`
	BasePrices []BasePrice `json:"base_prices,omitempty" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE;"`
	PriceRules []PriceRule `json:"price_rules,omitempty" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE;"`
}

// Session is one scheduled departure of a variant.
type Session struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	VariantID uuid.UUID     `json:"variant_id" gorm:"type:uuid;index;not null"`
	Date      time.Time     `json:"date" gorm:"type:date;not null;index:idx_sessions_variant_date"`
	StartTime *string       `json:"start_time,omitempty" gorm:"type:varchar(8)"` // "HH:MM"
	EndTime   *string       `json:"end_time,omitempty" gorm:"type:varchar(8)"`
	Capacity  *int          `json:"capacity,omitempty"` // overrides variant capacity when set
	Status    SessionStatus `json:"status" gorm:"type:varchar(20);default:'open'"`
	CreatedAt time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"autoUpdateTime"`

	Variant *Variant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

// PassengerType is a customer category (adult, child, ...) with its own pricing.
type PassengerType struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:100"`
	AgeMin    int       `json:"age_min" gorm:"default:0"`
	AgeMax    int       `json:"age_max" gorm:"default:200"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BasePrice is the price floor for one (variant, passenger type) pair.
type BasePrice struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	VariantID       uuid.UUID `json:"variant_id" gorm:"type:uuid;index;not null"`
	PassengerTypeID uuid.UUID `json:"passenger_type_id" gorm:"type:uuid;index;not null"`
	Amount          float64   `json:"amount" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`

	PassengerType *PassengerType `json:"passenger_type,omitempty" gorm:"foreignKey:PassengerTypeID"`
}

// PriceRuleKind distinguishes replacing vs adjusting rules.
type PriceRuleKind string

const (
	PriceRuleAbsolute PriceRuleKind = "ABSOLUTE" // replaces the base price
	PriceRuleDelta    PriceRuleKind = "DELTA"    // adjusts the base price
)

// PriceRule is a date/weekday scoped override of the base price carrying
// its own per-passenger-type prices.
type PriceRule struct {
	ID          uuid.UUID     `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	VariantID   uuid.UUID     `json:"variant_id" gorm:"type:uuid;index;not null"`
	Name        string        `json:"name" gorm:"size:255"`
	StartDate   time.Time     `json:"start_date" gorm:"type:date;not null"`
	EndDate     time.Time     `json:"end_date" gorm:"type:date;not null"`
	WeekdayMask uint8         `json:"weekday_mask" gorm:"default:127"` // bit i = time.Weekday i, 0x7F = all days
	Kind        PriceRuleKind `json:"kind" gorm:"type:varchar(10);not null"`
	Priority    int           `json:"priority" gorm:"default:0"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`

	Prices []PriceRulePrice `json:"prices,omitempty" gorm:"foreignKey:PriceRuleID;constraint:OnDelete:CASCADE;"`
}

// PriceRulePrice is one per-passenger-type amount inside a rule.
type PriceRulePrice struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	PriceRuleID     uuid.UUID `json:"price_rule_id" gorm:"type:uuid;index;not null"`
	PassengerTypeID uuid.UUID `json:"passenger_type_id" gorm:"type:uuid;index;not null"`
	Amount          float64   `json:"amount" gorm:"not null"`
}

func (Tour) TableName() string           { return "tours" }
func (Variant) TableName() string        { return "variants" }
func (Session) TableName() string        { return "sessions" }
func (PassengerType) TableName() string  { return "passenger_types" }
func (BasePrice) TableName() string      { return "base_prices" }
func (PriceRule) TableName() string      { return "price_rules" }
func (PriceRulePrice) TableName() string { return "price_rule_prices" }

// EffectiveCapacity is the oversell ceiling: the session override when set,
// otherwise the variant's per-slot capacity.
func (s *Session) EffectiveCapacity(v *Variant) int {
	if s.Capacity != nil {
		return *s.Capacity
	}
	return v.CapacityPerSlot
}

// DepartureAt combines the session date with its start time (midnight when
// no start time is set).
func (s *Session) DepartureAt() time.Time {
	departure := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, s.Date.Location())
	if s.StartTime != nil {
		if t, err := time.Parse("15:04", *s.StartTime); err == nil {
			departure = departure.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
		}
	}
	return departure
}

// Matches reports whether the rule applies on the given date: inside the
// inclusive date range and with the date's weekday bit set in the mask.
func (r *PriceRule) Matches(date time.Time) bool {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(r.StartDate.Year(), r.StartDate.Month(), r.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.EndDate.Year(), r.EndDate.Month(), r.EndDate.Day(), 0, 0, 0, 0, time.UTC)

	if day.Before(start) || day.After(end) {
		return false
	}
	return r.WeekdayMask&(1<<uint(date.Weekday())) != 0
}
