package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/pagination"
)

// CreateCouponDTO holds the data required to persist a new coupon.
type CreateCouponDTO struct {
	Code           string
	Description    *string
	PercentOff     int
	ExpiresAt      *time.Time
	MaxRedemptions *int
}

// UpdateCouponDTO applies a partial update. Nil fields keep the current value.
type UpdateCouponDTO struct {
	Description    *string
	PercentOff     *int
	IsActive       *bool
	ExpiresAt      *time.Time
	MaxRedemptions *int
}

// Service exposes coupon administration and redemption checks.
type Service interface {
	Create(ctx context.Context, dto CreateCouponDTO) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, dto UpdateCouponDTO) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context, params pagination.Params) ([]models.Coupon, int64, error)
	// Redeemable resolves a code to a coupon that can still be applied,
	// or returns a validation error naming the reason.
	Redeemable(ctx context.Context, code string) (*models.Coupon, error)
}

type service struct {
	coupons CouponRepository
	now     func() time.Time
}

// NewService constructs a coupon service with the provided repository.
func NewService(repo CouponRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository is required")
	}
	return &service{coupons: repo, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, dto CreateCouponDTO) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(dto.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if dto.PercentOff < 1 || dto.PercentOff > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percent_off must be between 1 and 100")
	}
	if dto.MaxRedemptions != nil && *dto.MaxRedemptions < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_redemptions must be positive")
	}

	coupon := &models.Coupon{
		Code:           code,
		Description:    dto.Description,
		PercentOff:     dto.PercentOff,
		IsActive:       true,
		ExpiresAt:      dto.ExpiresAt,
		MaxRedemptions: dto.MaxRedemptions,
	}
	created, err := s.coupons.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_coupons_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create coupon")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, dto UpdateCouponDTO) (*models.Coupon, error) {
	coupon, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.Description != nil {
		coupon.Description = dto.Description
	}
	if dto.PercentOff != nil {
		if *dto.PercentOff < 1 || *dto.PercentOff > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percent_off must be between 1 and 100")
		}
		coupon.PercentOff = *dto.PercentOff
	}
	if dto.IsActive != nil {
		coupon.IsActive = *dto.IsActive
	}
	if dto.ExpiresAt != nil {
		coupon.ExpiresAt = dto.ExpiresAt
	}
	if dto.MaxRedemptions != nil {
		if *dto.MaxRedemptions < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_redemptions must be positive")
		}
		coupon.MaxRedemptions = dto.MaxRedemptions
	}
	if _, err := s.coupons.Update(ctx, coupon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update coupon")
	}
	return coupon, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.coupons.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete coupon")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Coupon, int64, error) {
	rows, total, err := s.coupons.List(ctx, params)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list coupons")
	}
	return rows, total, nil
}

func (s *service) Redeemable(ctx context.Context, code string) (*models.Coupon, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup coupon")
	}
	if !coupon.Redeemable(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is no longer redeemable")
	}
	return coupon, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}
	coupon, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load coupon")
	}
	return coupon, nil
}
