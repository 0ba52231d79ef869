package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
)

// Repository persists carts and cart items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	return &Repository{db: tx}
}

func (r *Repository) ownerScope(q *gorm.DB, owner Owner) *gorm.DB {
	if owner.CustomerID != nil {
		return q.Where("customer_id = ?", *owner.CustomerID)
	}
	return q.Where("session_token = ?", *owner.SessionToken)
}

// FindOrCreate returns the owner's cart, creating an empty one when absent.
func (r *Repository) FindOrCreate(ctx context.Context, owner Owner) (*models.Cart, error) {
	record, err := r.FindByOwner(ctx, owner)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart := &models.Cart{
		CustomerID:   owner.CustomerID,
		SessionToken: owner.SessionToken,
	}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	cart.Items = []models.CartItem{}
	return cart, nil
}

// FindByOwner loads the owner's cart with items and their books.
func (r *Repository) FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error) {
	var cart models.Cart
	err := r.ownerScope(r.db.WithContext(ctx), owner).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Book").
		First(&cart).
		Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindByID loads a cart by its UUID with items and their books.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Book").
		First(&cart, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpsertItem inserts a new item row.
func (r *Repository) UpsertItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// FindItem loads a cart item scoped to the cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Book").
		First(&item, "id = ? AND cart_id = ?", itemID, cartID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByBook loads the cart line for a given book, if any.
func (r *Repository) FindItemByBook(ctx context.Context, cartID, bookID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		First(&item, "cart_id = ? AND book_id = ?", cartID, bookID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem saves quantity and unit price changes on an item row.
func (r *Repository) UpdateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Omit("Book").Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes one item row scoped to the cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{}).
		Error
}

// ClearItems removes every item row while keeping the cart.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).
		Error
}

// DeleteCart removes the cart row itself.
func (r *Repository) DeleteCart(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Cart{}).Error
}

// Touch bumps updated_at so idle-cart cleanup sees recent activity.
func (r *Repository) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", time.Now().UTC()).
		Error
}
