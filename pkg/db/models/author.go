package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Author is linked to books through the book_authors join table.
type Author struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Bio       *string   `gorm:"column:bio"`
	Books     []Book    `gorm:"many2many:book_authors"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Author) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
