package payments

import (
	"time"

	"github.com/google/uuid"
)

// MethodKind distinguishes online card charges from offline settlement.
type MethodKind string

const (
	MethodCard    MethodKind = "CARD"
	MethodOffline MethodKind = "OFFLINE"
)

// PaymentMethod is a way to pay, optionally fenced to an amount range.
type PaymentMethod struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Code      string     `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Name      string     `json:"name" gorm:"not null;size:255"`
	Kind      MethodKind `json:"kind" gorm:"type:varchar(10);not null"`
	RuleMin   *float64   `json:"rule_min,omitempty"`
	RuleMax   *float64   `json:"rule_max,omitempty"`
	Enabled   bool       `json:"enabled" gorm:"default:true"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// PaymentProfile is a stored payment identity for charging a customer
// through the vault.
type PaymentProfile struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	CustomerRef string    `json:"customer_ref" gorm:"not null;size:255"`
	Label       string    `json:"label" gorm:"size:100"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (PaymentMethod) TableName() string  { return "payment_methods" }
func (PaymentProfile) TableName() string { return "payment_profiles" }

// AllowsAmount checks the method's amount fence; open bounds always pass.
func (m *PaymentMethod) AllowsAmount(amount float64) bool {
	if m.RuleMin != nil && amount < *m.RuleMin {
		return false
	}
	if m.RuleMax != nil && amount > *m.RuleMax {
		return false
	}
	return true
}
