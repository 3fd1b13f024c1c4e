package refunds

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrPolicyNotFound = errors.New("refund policy not found")

type Repository interface {
	GetPolicyByID(ctx context.Context, id uuid.UUID) (*RefundPolicy, error)
	CreatePolicy(ctx context.Context, policy *RefundPolicy) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetPolicyByID(ctx context.Context, id uuid.UUID) (*RefundPolicy, error) {
	var policy RefundPolicy
	err := r.db.WithContext(ctx).Preload("Rules").First(&policy, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPolicyNotFound
		}
		return nil, err
	}
	return &policy, nil
}

func (r *repository) CreatePolicy(ctx context.Context, policy *RefundPolicy) error {
	return r.db.WithContext(ctx).Create(policy).Error
}
