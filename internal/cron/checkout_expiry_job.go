package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
)

const defaultCheckoutMaxAge = 24 * time.Hour

const checkoutExpiredReason = "La sesión de compra ha caducado"

// CheckoutExpiryJobParams configure the abandoned checkout sweeper.
type CheckoutExpiryJobParams struct {
	Logger *logger.Logger
	DB     *gorm.DB
	MaxAge time.Duration
}

// NewCheckoutExpiryJob builds the job that fails checkout sessions left
// open past their useful life. No stock is held before confirmation, so
// expiring a session only closes the state machine.
func NewCheckoutExpiryJob(params CheckoutExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCheckoutMaxAge
	}
	return &checkoutExpiryJob{
		logg:   params.Logger,
		db:     params.DB,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type checkoutExpiryJob struct {
	logg   *logger.Logger
	db     *gorm.DB
	maxAge time.Duration
	now    func() time.Time
}

func (j *checkoutExpiryJob) Name() string { return "checkout-expiry" }

func (j *checkoutExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)

	result := j.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("status IN ?", []enums.CheckoutStatus{
			enums.CheckoutStatusDraft,
			enums.CheckoutStatusPaymentPending,
		}).
		Where("updated_at < ?", cutoff).
		Updates(map[string]any{
			"status":         enums.CheckoutStatusFailed,
			"failure_reason": checkoutExpiredReason,
			"updated_at":     j.now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("expire abandoned checkouts: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		j.logg.Info(ctx, "no abandoned checkouts to expire")
		return nil
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": result.RowsAffected})
	j.logg.Info(logCtx, "abandoned checkouts expired")
	return nil
}
