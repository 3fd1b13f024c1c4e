package refunds

import (
	"time"

	"github.com/google/uuid"
)

// RefundPolicy groups tiered cancellation rules attachable to variants.
type RefundPolicy struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Rules []RefundRule `json:"rules,omitempty" gorm:"foreignKey:PolicyID;constraint:OnDelete:CASCADE;"`
}

// RefundRule charges FeePct of the booking total when cancellation happens
// at least BeforeHours before departure.
type RefundRule struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	PolicyID    uuid.UUID `json:"policy_id" gorm:"type:uuid;index;not null"`
	BeforeHours int       `json:"before_hours" gorm:"not null"`
	FeePct      float64   `json:"fee_pct" gorm:"not null;check:fee_pct >= 0 AND fee_pct <= 100"`
}

func (RefundPolicy) TableName() string { return "refund_policies" }
func (RefundRule) TableName() string   { return "refund_rules" }
