package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Coupon grants a percentage discount on the cart total when applied
// during checkout.
type Coupon struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Code           string     `gorm:"column:code;type:text;not null;uniqueIndex"`
	Description    *string    `gorm:"column:description"`
	PercentOff     int        `gorm:"column:percent_off;not null"`
	IsActive       bool       `gorm:"column:is_active;not null;default:true"`
	ExpiresAt      *time.Time `gorm:"column:expires_at"`
	MaxRedemptions *int       `gorm:"column:max_redemptions"`
	Redemptions    int        `gorm:"column:redemptions;not null;default:0"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Redeemable reports whether the coupon can still be applied at the
// given instant.
func (c Coupon) Redeemable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	if c.MaxRedemptions != nil && c.Redemptions >= *c.MaxRedemptions {
		return false
	}
	return true
}
