package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
)

// ItemDTO is the transport shape for a single cart line.
type ItemDTO struct {
	ID             uuid.UUID       `json:"id"`
	BookID         uuid.UUID       `json:"book_id"`
	Title          string          `json:"title"`
	ISBN           string          `json:"isbn"`
	CoverURL       *string         `json:"cover_url,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	AvailableStock int             `json:"available_stock"`
}

// CartDTO is the transport shape for a priced cart.
type CartDTO struct {
	ID        uuid.UUID       `json:"id"`
	Items     []ItemDTO       `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FromCartModel prices a persisted cart into its transport shape.
func FromCartModel(c *models.Cart) *CartDTO {
	if c == nil {
		return nil
	}
	items := make([]ItemDTO, 0, len(c.Items))
	count := 0
	for _, item := range c.Items {
		dto := ItemDTO{
			ID:        item.ID,
			BookID:    item.BookID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
		}
		if item.Book != nil {
			dto.Title = item.Book.Title
			dto.ISBN = item.Book.ISBN
			dto.CoverURL = item.Book.CoverURL
			dto.AvailableStock = item.Book.Stock
		}
		items = append(items, dto)
		count += item.Quantity
	}
	return &CartDTO{
		ID:        c.ID,
		Items:     items,
		ItemCount: count,
		Subtotal:  ComputeSubtotal(c.Items),
		UpdatedAt: c.UpdatedAt,
	}
}

// ComputeSubtotal sums line subtotals, rounded to cents.
func ComputeSubtotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total.Round(2)
}
