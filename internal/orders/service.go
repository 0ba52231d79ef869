package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order history for customers and status management
// for back-office admins.
type Service interface {
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, int64, error)
	GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error)
	// Cancel moves a customer's order to cancelled and returns the
	// purchased units to stock.
	Cancel(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error)

	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Order, int64, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
}

type service struct {
	tx     txRunner
	orders OrderRepository
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	TxRunner  txRunner
	OrderRepo OrderRepository
}

// NewService constructs an orders service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	return &service{tx: params.TxRunner, orders: params.OrderRepo}, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, int64, error) {
	if customerID == uuid.Nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer required")
	}
	rows, total, err := s.orders.List(ctx, params, ListFilters{CustomerID: &customerID})
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return rows, total, nil
}

func (s *service) GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID == nil || *order.CustomerID != customerID {
		// Hide other customers' orders entirely.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) Cancel(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetForCustomer(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(enums.OrderStatusCancelled) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %q cannot be cancelled", order.Status))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
		}
		for _, line := range order.LineItems {
			err := tx.WithContext(ctx).
				Model(&models.Book{}).
				Where("id = ?", line.BookID).
				UpdateColumn("stock", gorm.Expr("stock + ?", line.Quantity)).
				Error
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restock cancelled line")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, order.ID)
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Order, int64, error) {
	rows, total, err := s.orders.List(ctx, params, filters)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return rows, total, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.load(ctx, orderID)
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %q to %q", order.Status, status))
	}
	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	return s.load(ctx, orderID)
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}
