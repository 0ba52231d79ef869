package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
)

// CreateBookDTO holds the data required to persist a new book.
type CreateBookDTO struct {
	ISBN            string
	Title           string
	Description     *string
	Price           decimal.Decimal
	Stock           int
	OnSale          bool
	DiscountPercent int
	CoverURL        *string
	PublishedAt     *time.Time
	CategoryID      *uuid.UUID
	PublisherID     *uuid.UUID
	AuthorIDs       []uuid.UUID
}

// UpdateBookDTO applies a partial update. Nil fields keep the current value.
type UpdateBookDTO struct {
	Title           *string
	Description     *string
	Price           *decimal.Decimal
	Stock           *int
	IsActive        *bool
	OnSale          *bool
	DiscountPercent *int
	CoverURL        *string
	PublishedAt     *time.Time
	CategoryID      *uuid.UUID
	PublisherID     *uuid.UUID
	AuthorIDs       []uuid.UUID
}

// AuthorSummary is the nested author shape on book payloads.
type AuthorSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// BookDTO is the transport shape for catalog books. EffectivePrice is
// the price after any active sale discount.
type BookDTO struct {
	ID              uuid.UUID       `json:"id"`
	ISBN            string          `json:"isbn"`
	Title           string          `json:"title"`
	Description     *string         `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	EffectivePrice  decimal.Decimal `json:"effective_price"`
	Stock           int             `json:"stock"`
	IsActive        bool            `json:"is_active"`
	OnSale          bool            `json:"on_sale"`
	DiscountPercent int             `json:"discount_percent"`
	CoverURL        *string         `json:"cover_url,omitempty"`
	PublishedAt     *time.Time      `json:"published_at,omitempty"`
	Category        *models.Category `json:"category,omitempty"`
	Publisher       *models.Publisher `json:"publisher,omitempty"`
	Authors         []AuthorSummary `json:"authors"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// FromBookModel converts a persisted book into its transport shape.
func FromBookModel(b *models.Book) *BookDTO {
	if b == nil {
		return nil
	}
	authors := make([]AuthorSummary, 0, len(b.Authors))
	for _, a := range b.Authors {
		authors = append(authors, AuthorSummary{ID: a.ID, Name: a.Name})
	}
	return &BookDTO{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Description:     b.Description,
		Price:           b.Price,
		EffectivePrice:  b.EffectivePrice(),
		Stock:           b.Stock,
		IsActive:        b.IsActive,
		OnSale:          b.OnSale,
		DiscountPercent: b.DiscountPercent,
		CoverURL:        b.CoverURL,
		PublishedAt:     b.PublishedAt,
		Category:        b.Category,
		Publisher:       b.Publisher,
		Authors:         authors,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
