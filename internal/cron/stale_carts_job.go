package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
)

const defaultCartMaxIdle = 30 * 24 * time.Hour

// StaleCartsJobParams configure the anonymous cart sweeper.
type StaleCartsJobParams struct {
	Logger  *logger.Logger
	DB      *gorm.DB
	MaxIdle time.Duration
}

// NewStaleCartsJob builds the job that drops anonymous carts nobody has
// touched in a while. Customer carts are kept indefinitely.
func NewStaleCartsJob(params StaleCartsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	maxIdle := params.MaxIdle
	if maxIdle <= 0 {
		maxIdle = defaultCartMaxIdle
	}
	return &staleCartsJob{
		logg:    params.Logger,
		db:      params.DB,
		maxIdle: maxIdle,
		now:     time.Now,
	}, nil
}

type staleCartsJob struct {
	logg    *logger.Logger
	db      *gorm.DB
	maxIdle time.Duration
	now     func() time.Time
}

func (j *staleCartsJob) Name() string { return "stale-carts" }

func (j *staleCartsJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxIdle)

	// Carts in an open checkout are spared even when idle: the session
	// still references them and may yet confirm.
	var cartIDs []uuid.UUID
	err := j.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("session_token IS NOT NULL").
		Where("updated_at < ?", cutoff).
		Where("id NOT IN (?)", j.db.
			Model(&models.CheckoutSession{}).
			Select("cart_id").
			Where("status IN ?", []enums.CheckoutStatus{
				enums.CheckoutStatusDraft,
				enums.CheckoutStatusPaymentPending,
			})).
		Pluck("id", &cartIDs).
		Error
	if err != nil {
		return fmt.Errorf("query stale carts: %w", err)
	}
	if len(cartIDs) == 0 {
		j.logg.Info(ctx, "no stale carts to prune")
		return nil
	}

	err = j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id IN ?", cartIDs).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("delete stale cart items: %w", err)
		}
		if err := tx.Where("id IN ?", cartIDs).Delete(&models.Cart{}).Error; err != nil {
			return fmt.Errorf("delete stale carts: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": len(cartIDs)})
	j.logg.Info(logCtx, "stale carts pruned")
	return nil
}
