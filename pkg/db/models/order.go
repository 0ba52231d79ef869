package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/enums"
	"github.com/libreria-dev/libreria-backend/pkg/types"
)

// Order is the immutable record produced when a checkout session is
// confirmed. Line items snapshot titles and prices at purchase time.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Number          string                `gorm:"column:number;type:text;not null;uniqueIndex"`
	CustomerID      *uuid.UUID            `gorm:"column:customer_id;type:uuid"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	CouponCode      *string               `gorm:"column:coupon_code"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Discount        decimal.Decimal       `gorm:"column:discount;type:numeric(10,2);not null;default:0"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(10,2);not null"`
	LineItems       []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PlacedAt        time.Time             `gorm:"column:placed_at;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
