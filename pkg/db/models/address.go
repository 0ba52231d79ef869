package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/types"
)

// Address is a saved shipping address on a customer profile. At most
// one address per user carries the default flag.
type Address struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Label     string                `gorm:"column:label;not null"`
	Details   types.ShippingAddress `gorm:"column:details;type:jsonb;serializer:json;not null"`
	IsDefault bool                  `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
