package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the mutable pre-checkout container. Exactly one of CustomerID
// or SessionToken is set: logged-in carts hang off the user, anonymous
// carts off the X-Cart-Session token.
type Cart struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID   *uuid.UUID `gorm:"column:customer_id;type:uuid;uniqueIndex"`
	SessionToken *string    `gorm:"column:session_token;type:text;uniqueIndex"`
	Items        []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
