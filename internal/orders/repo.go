package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	"github.com/libreria-dev/libreria-backend/pkg/pagination"
)

// ListFilters narrows admin order listings. Nil fields are ignored.
type ListFilters struct {
	Status     *enums.OrderStatus
	CustomerID *uuid.UUID
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}

// Repository persists orders and their line items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) OrderRepository {
	return &Repository{db: tx}
}

// Create inserts the order together with its line items.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByNumber loads an order by its human-facing number.
func (r *Repository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&order, "number = ?", number).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns a filtered page of orders plus the unpaged total,
// newest first.
func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Order, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Order{})
	if filters.Status != nil {
		qb = qb.Where("status = ?", *filters.Status)
	}
	if filters.CustomerID != nil {
		qb = qb.Where("customer_id = ?", *filters.CustomerID)
	}

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Order
	err := qb.
		Preload("LineItems").
		Order("placed_at DESC").
		Order("id DESC").
		Offset(params.Offset()).
		Limit(pagination.NormalizeLimit(params.Limit)).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateStatus overwrites the order status column.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("status", status).
		Error
}
