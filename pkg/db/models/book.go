package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Book represents a catalog listing. Price is the list price before any
// sale discount; Stock is the sellable quantity gate used at checkout.
type Book struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ISBN            string          `gorm:"column:isbn;type:text;not null;uniqueIndex"`
	Title           string          `gorm:"column:title;not null"`
	Description     *string         `gorm:"column:description"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Stock           int             `gorm:"column:stock;not null;default:0"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	OnSale          bool            `gorm:"column:on_sale;not null;default:false"`
	DiscountPercent int             `gorm:"column:discount_percent;not null;default:0"`
	CoverURL        *string         `gorm:"column:cover_url"`
	PublishedAt     *time.Time      `gorm:"column:published_at"`
	CategoryID      *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Category        *Category       `gorm:"foreignKey:CategoryID"`
	PublisherID     *uuid.UUID      `gorm:"column:publisher_id;type:uuid"`
	Publisher       *Publisher      `gorm:"foreignKey:PublisherID"`
	Authors         []Author        `gorm:"many2many:book_authors"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Book) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// EffectivePrice returns the price a buyer pays right now, applying the
// sale discount when the book is flagged on sale.
func (b Book) EffectivePrice() decimal.Decimal {
	if !b.OnSale || b.DiscountPercent <= 0 {
		return b.Price
	}
	factor := decimal.NewFromInt(int64(100 - b.DiscountPercent)).Div(decimal.NewFromInt(100))
	return b.Price.Mul(factor).Round(2)
}
