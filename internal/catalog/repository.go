package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTourNotFound    = errors.New("tour not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrSessionNotFound = errors.New("session not found")
)

type Repository interface {
	GetTourByID(ctx context.Context, id uuid.UUID) (*Tour, error)
	ListTours(ctx context.Context, limit, offset int) ([]Tour, int64, error)
	GetVariantByID(ctx context.Context, id uuid.UUID) (*Variant, error)
	GetVariantWithPricing(ctx context.Context, id uuid.UUID) (*Variant, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetSessionByVariantAndDate(ctx context.Context, variantID uuid.UUID, date time.Time) (*Session, error)
	CreateSession(ctx context.Context, session *Session) error
	ListSessionsByVariant(ctx context.Context, variantID uuid.UUID, from, to time.Time) ([]Session, error)
	UpdateSessionStatus(ctx context.Context, id uuid.UUID, status SessionStatus) error
	GetPassengerTypesByIDs(ctx context.Context, ids []uuid.UUID) ([]PassengerType, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetTourByID(ctx context.Context, id uuid.UUID) (*Tour, error) {
	var tour Tour
	err := r.db.WithContext(ctx).Preload("Variants").First(&tour, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return &tour, nil
}

func (r *repository) ListTours(ctx context.Context, limit, offset int) ([]Tour, int64, error) {
	var tours []Tour
	var total int64

	query := r.db.WithContext(ctx).Model(&Tour{}).Where("status = ?", TourPublished)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&tours).Error
	if err != nil {
		return nil, 0, err
	}
	return tours, total, nil
}

func (r *repository) GetVariantByID(ctx context.Context, id uuid.UUID) (*Variant, error) {
	var variant Variant
	err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// GetVariantWithPricing loads the variant with everything the price resolver
// needs in one shot: base prices, rules, rule prices and passenger types.
func (r *repository) GetVariantWithPricing(ctx context.Context, id uuid.UUID) (*Variant, error) {
	var variant Variant
	err := r.db.WithContext(ctx).
		Preload("BasePrices").
		Preload("BasePrices.PassengerType").
		Preload("PriceRules").
		Preload("PriceRules.Prices").
		First(&variant, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	return &variant, nil
}

func (r *repository) GetSessionByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	var session Session
	err := r.db.WithContext(ctx).Preload("Variant").First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *repository) GetSessionByVariantAndDate(ctx context.Context, variantID uuid.UUID, date time.Time) (*Session, error) {
	var session Session
	day := date.Format("2006-01-02")
	err := r.db.WithContext(ctx).
		Where("variant_id = ? AND date = ?", variantID, day).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *repository) CreateSession(ctx context.Context, session *Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) ListSessionsByVariant(ctx context.Context, variantID uuid.UUID, from, to time.Time) ([]Session, error) {
	var sessions []Session
	err := r.db.WithContext(ctx).
		Where("variant_id = ? AND date >= ? AND date <= ?", variantID, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("date ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *repository) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status SessionStatus) error {
	result := r.db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *repository) GetPassengerTypesByIDs(ctx context.Context, ids []uuid.UUID) ([]PassengerType, error) {
	var types []PassengerType
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&types).Error
	return types, err
}
