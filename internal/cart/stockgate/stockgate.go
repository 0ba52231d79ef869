// Package stockgate decides whether cart lines can be satisfied by the
// current book stock, and performs the guarded decrement at checkout.
package stockgate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
)

// Request asks for quantity units of a book on behalf of a cart line.
type Request struct {
	CartItemID uuid.UUID
	BookID     uuid.UUID
	Quantity   int
}

// Result reports the per-line outcome of a stock check or reservation.
type Result struct {
	CartItemID uuid.UUID `json:"cart_item_id"`
	BookID     uuid.UUID `json:"book_id"`
	Reserved   bool      `json:"reserved"`
	Reason     string    `json:"reason,omitempty"`
	Available  int       `json:"available"`
}

// InsufficientStockReason is the storefront message for a line that
// cannot be fully satisfied.
func InsufficientStockReason(available int) string {
	return fmt.Sprintf("Stock insuficiente. Solo quedan %d unidades", available)
}

// CanReserve reports whether quantity units of the book could be
// reserved right now. Cart mutations consult it on every change but
// never hold stock; the actual decrement happens at checkout via
// Reserve.
func CanReserve(book *models.Book, quantity int) bool {
	return book != nil && book.IsActive && quantity >= 1 && book.Stock >= quantity
}

// Check inspects current stock without mutating it. It reads through
// the provided DB handle, which may be a transaction.
func Check(ctx context.Context, db *gorm.DB, requests []Request) ([]Result, error) {
	results := make([]Result, len(requests))
	for i, req := range requests {
		var book models.Book
		if err := db.WithContext(ctx).Select("id", "stock", "is_active").First(&book, "id = ?", req.BookID).Error; err != nil {
			return nil, err
		}
		results[i] = evaluate(req, book.Stock, book.IsActive)
	}
	return results, nil
}

// Reserve decrements stock for each request inside the caller's
// transaction. The decrement is guarded: a concurrent purchase that
// drains stock first makes the UPDATE match zero rows, and the line is
// reported as not reserved instead of going negative.
func Reserve(ctx context.Context, tx *gorm.DB, requests []Request) ([]Result, error) {
	results := make([]Result, len(requests))
	for i, req := range requests {
		var book models.Book
		if err := tx.WithContext(ctx).Select("id", "stock", "is_active").First(&book, "id = ?", req.BookID).Error; err != nil {
			return nil, err
		}
		result := evaluate(req, book.Stock, book.IsActive)
		if !result.Reserved {
			results[i] = result
			continue
		}

		update := tx.WithContext(ctx).
			Model(&models.Book{}).
			Where("id = ? AND stock >= ?", req.BookID, req.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", req.Quantity))
		if update.Error != nil {
			return nil, update.Error
		}
		if update.RowsAffected == 0 {
			result.Reserved = false
			result.Reason = InsufficientStockReason(book.Stock)
		}
		results[i] = result
	}
	return results, nil
}

func evaluate(req Request, stock int, active bool) Result {
	result := Result{
		CartItemID: req.CartItemID,
		BookID:     req.BookID,
		Available:  stock,
	}
	switch {
	case req.Quantity < 1:
		result.Reason = "la cantidad debe ser al menos 1"
	case !active:
		result.Reason = "el libro ya no está a la venta"
	case stock < req.Quantity:
		result.Reason = InsufficientStockReason(stock)
	default:
		result.Reserved = true
	}
	return result
}
