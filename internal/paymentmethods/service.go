// Package paymentmethods manages tokenized payment instruments saved on
// customer profiles. Full card numbers are never accepted or stored.
package paymentmethods

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateDTO holds the data required to save a payment method.
type CreateDTO struct {
	Kind        enums.PaymentMethod
	Label       string
	LastFour    *string
	ExpiryMonth *int
	ExpiryYear  *int
	IsDefault   bool
}

// Service exposes saved payment method operations scoped to the owner.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error)
	Create(ctx context.Context, userID uuid.UUID, dto CreateDTO) (*models.PaymentMethod, error)
	Delete(ctx context.Context, userID, methodID uuid.UUID) error
	SetDefault(ctx context.Context, userID, methodID uuid.UUID) (*models.PaymentMethod, error)
	Get(ctx context.Context, userID, methodID uuid.UUID) (*models.PaymentMethod, error)
}

type service struct {
	tx  txRunner
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs a payment methods service bound to the provided DB.
func NewService(tx txRunner, db *gorm.DB) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	return &service{tx: tx, db: db, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	var rows []models.PaymentMethod
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payment methods")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, dto CreateDTO) (*models.PaymentMethod, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if !dto.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method kind")
	}
	if strings.TrimSpace(dto.Label) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "label is required")
	}
	if dto.Kind == enums.PaymentMethodCard {
		if dto.LastFour == nil || len(*dto.LastFour) != 4 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "card methods require the last four digits")
		}
		if err := s.checkExpiry(dto.ExpiryMonth, dto.ExpiryYear); err != nil {
			return nil, err
		}
	}

	record := &models.PaymentMethod{
		UserID:      userID,
		Kind:        dto.Kind,
		Label:       strings.TrimSpace(dto.Label),
		LastFour:    dto.LastFour,
		ExpiryMonth: dto.ExpiryMonth,
		ExpiryYear:  dto.ExpiryYear,
		IsDefault:   dto.IsDefault,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment method")
	}
	return record, nil
}

func (s *service) Delete(ctx context.Context, userID, methodID uuid.UUID) error {
	record, err := s.Get(ctx, userID, methodID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(record).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete payment method")
	}
	return nil
}

func (s *service) SetDefault(ctx context.Context, userID, methodID uuid.UUID) (*models.PaymentMethod, error) {
	record, err := s.Get(ctx, userID, methodID)
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set default payment method")
	}
	return record, nil
}

func (s *service) Get(ctx context.Context, userID, methodID uuid.UUID) (*models.PaymentMethod, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	var record models.PaymentMethod
	err := s.db.WithContext(ctx).
		First(&record, "id = ? AND user_id = ?", methodID, userID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment method")
	}
	return &record, nil
}

func (s *service) checkExpiry(month, year *int) error {
	if month == nil || year == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "card methods require an expiry date")
	}
	if *month < 1 || *month > 12 {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry month must be between 1 and 12")
	}
	now := s.now().UTC()
	if *year < now.Year() || (*year == now.Year() && *month < int(now.Month())) {
		return pkgerrors.New(pkgerrors.CodeValidation, "card is expired")
	}
	return nil
}

func clearDefault(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return tx.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Where("user_id = ? AND is_default", userID).
		UpdateColumn("is_default", false).
		Error
}
