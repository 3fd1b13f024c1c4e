package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMethodNotFound  = errors.New("payment method not found")
	ErrProfileNotFound = errors.New("payment profile not found")
)

type Repository interface {
	ListEnabledMethods(ctx context.Context) ([]PaymentMethod, error)
	GetMethodByID(ctx context.Context, id uuid.UUID) (*PaymentMethod, error)
	GetMethodByCode(ctx context.Context, code string) (*PaymentMethod, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (*PaymentProfile, error)
	GetProfilesByUser(ctx context.Context, userID uuid.UUID) ([]PaymentProfile, error)
	CreateProfile(ctx context.Context, profile *PaymentProfile) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListEnabledMethods(ctx context.Context) ([]PaymentMethod, error) {
	var methods []PaymentMethod
	err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("code ASC").Find(&methods).Error
	return methods, err
}

func (r *repository) GetMethodByID(ctx context.Context, id uuid.UUID) (*PaymentMethod, error) {
	var method PaymentMethod
	err := r.db.WithContext(ctx).First(&method, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMethodNotFound
		}
		return nil, err
	}
	return &method, nil
}

func (r *repository) GetMethodByCode(ctx context.Context, code string) (*PaymentMethod, error) {
	var method PaymentMethod
	err := r.db.WithContext(ctx).First(&method, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMethodNotFound
		}
		return nil, err
	}
	return &method, nil
}

func (r *repository) GetProfileByID(ctx context.Context, id uuid.UUID) (*PaymentProfile, error) {
	var profile PaymentProfile
	err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repository) GetProfilesByUser(ctx context.Context, userID uuid.UUID) ([]PaymentProfile, error) {
	var profiles []PaymentProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&profiles).Error
	return profiles, err
}

func (r *repository) CreateProfile(ctx context.Context, profile *PaymentProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}
