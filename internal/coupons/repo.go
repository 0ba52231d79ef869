package coupons

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/pagination"
)

// CouponRepository defines persistence operations for discount coupons.
type CouponRepository interface {
	WithTx(tx *gorm.DB) CouponRepository
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context, params pagination.Params) ([]models.Coupon, int64, error)
	IncrementRedemptions(ctx context.Context, id uuid.UUID) error
}

// Repository persists coupons.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a coupon repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CouponRepository {
	return &Repository{db: tx}
}

// Create inserts a new coupon row.
func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update saves an existing coupon row.
func (r *Repository) Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Save(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

// Delete removes a coupon by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Coupon{}).Error
}

// FindByID loads a coupon by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindByCode loads a coupon by its case-insensitive code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		First(&coupon, "UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// List returns a page of coupons plus the unpaged total.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Coupon, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Coupon{})

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Coupon
	err := qb.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(pagination.NormalizeLimit(params.Limit)).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// IncrementRedemptions bumps the usage counter atomically.
func (r *Repository) IncrementRedemptions(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", id).
		UpdateColumn("redemptions", gorm.Expr("redemptions + 1")).
		Error
}
