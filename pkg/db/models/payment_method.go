package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/enums"
)

// PaymentMethod is a tokenized payment instrument saved on a customer
// profile. Only the last four digits are ever stored.
type PaymentMethod struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Kind        enums.PaymentMethod `gorm:"column:kind;type:text;not null"`
	Label       string              `gorm:"column:label;not null"`
	LastFour    *string             `gorm:"column:last_four;type:varchar(4)"`
	ExpiryMonth *int                `gorm:"column:expiry_month"`
	ExpiryYear  *int                `gorm:"column:expiry_year"`
	IsDefault   bool                `gorm:"column:is_default;not null;default:false"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *PaymentMethod) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
