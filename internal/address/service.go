// Package address manages saved shipping addresses on customer profiles.
package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateAddressDTO holds the data required to save a new address.
type CreateAddressDTO struct {
	Label     string
	Details   types.ShippingAddress
	IsDefault bool
}

// Service exposes address book operations scoped to the owning user.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, dto CreateAddressDTO) (*models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, dto CreateAddressDTO) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type service struct {
	tx txRunner
	db *gorm.DB
}

// NewService constructs an address service bound to the provided DB.
func NewService(tx txRunner, db *gorm.DB) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	return &service{tx: tx, db: db}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	var rows []models.Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, dto CreateAddressDTO) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if strings.TrimSpace(dto.Label) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "label is required")
	}
	if problems := dto.Details.Validate(); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid address").WithDetails(problems)
	}

	record := &models.Address{
		UserID:    userID,
		Label:     strings.TrimSpace(dto.Label),
		Details:   dto.Details,
		IsDefault: dto.IsDefault,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if dto.IsDefault {
			if err := clearDefault(ctx, tx, userID); err != nil {
				return err
			}
		}
		return tx.WithContext(ctx).Create(record).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
	}
	return record, nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, dto CreateAddressDTO) (*models.Address, error) {
	record, err := s.loadOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dto.Label) != "" {
		record.Label = strings.TrimSpace(dto.Label)
	}
	if problems := dto.Details.Validate(); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid address").WithDetails(problems)
	}
	record.Details = dto.Details

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if dto.IsDefault && !record.IsDefault {
			if err := clearDefault(ctx, tx, userID); err != nil {
				return err
			}
			record.IsDefault = true
		}
		return tx.WithContext(ctx).Save(record).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
	}
	return record, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	record, err := s.loadOwned(ctx, userID, addressID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(record).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	return nil
}

func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	record, err := s.loadOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := clearDefault(ctx, tx, userID); err != nil {
			return err
		}
		record.IsDefault = true
		return tx.WithContext(ctx).Save(record).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set default address")
	}
	return record, nil
}

func (s *service) loadOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	var record models.Address
	err := s.db.WithContext(ctx).
		First(&record, "id = ? AND user_id = ?", addressID, userID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	return &record, nil
}

func clearDefault(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return tx.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default", userID).
		UpdateColumn("is_default", false).
		Error
}
