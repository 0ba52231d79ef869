package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
)

// Owner identifies who a cart belongs to. Exactly one field is set:
// CustomerID for logged-in users, SessionToken for anonymous visitors.
type Owner struct {
	CustomerID   *uuid.UUID
	SessionToken *string
}

// Anonymous reports whether the owner is a session-token visitor.
func (o Owner) Anonymous() bool {
	return o.CustomerID == nil
}

// CartRepository defines persistence operations for carts and their items.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindOrCreate(ctx context.Context, owner Owner) (*models.Cart, error)
	FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	UpsertItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByBook(ctx context.Context, cartID, bookID uuid.UUID) (*models.CartItem, error)
	UpdateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	DeleteCart(ctx context.Context, id uuid.UUID) error
	Touch(ctx context.Context, id uuid.UUID) error
}

type bookLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}
