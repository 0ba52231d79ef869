package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/enums"
	"github.com/libreria-dev/libreria-backend/pkg/types"
)

// CheckoutSession is the durable server-side checkout state machine.
// It accumulates shipping and payment details across steps until the
// session is confirmed into an order or fails.
type CheckoutSession struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	CartID          uuid.UUID              `gorm:"column:cart_id;type:uuid;not null"`
	CustomerID      *uuid.UUID             `gorm:"column:customer_id;type:uuid"`
	Status          enums.CheckoutStatus   `gorm:"column:status;type:text;not null;default:'draft'"`
	ShippingAddress *types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	PaymentMethod   *enums.PaymentMethod   `gorm:"column:payment_method;type:text"`
	CouponCode      *string                `gorm:"column:coupon_code"`
	Subtotal        decimal.Decimal        `gorm:"column:subtotal;type:numeric(10,2);not null;default:0"`
	Discount        decimal.Decimal        `gorm:"column:discount;type:numeric(10,2);not null;default:0"`
	Total           decimal.Decimal        `gorm:"column:total;type:numeric(10,2);not null;default:0"`
	FailureReason   *string                `gorm:"column:failure_reason"`
	PaymentAttempts int                    `gorm:"column:payment_attempts;not null;default:0"`
	OrderID         *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	ConfirmedAt     *time.Time             `gorm:"column:confirmed_at"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *CheckoutSession) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
