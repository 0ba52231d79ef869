package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/pagination"
	"github.com/libreria-dev/libreria-backend/pkg/types"
)

func setupService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Book{}, &models.Order{}, &models.OrderLineItem{}))

	svc, err := NewService(ServiceParams{
		TxRunner:  db.NewWithConn(conn),
		OrderRepo: NewRepository(conn),
	})
	require.NoError(t, err)
	return svc, conn
}

func testAddress() types.ShippingAddress {
	return types.ShippingAddress{
		Name:       "Ana",
		Surname:    "García",
		Street:     "Calle Mayor 1",
		City:       "Madrid",
		PostalCode: "28013",
		Phone:      "600111222",
		Email:      "ana@example.com",
	}
}

func seedOrder(t *testing.T, conn *gorm.DB, customerID uuid.UUID, status enums.OrderStatus) *models.Order {
	t.Helper()

	book := &models.Book{
		ISBN:     uuid.NewString(),
		Title:    "Prueba",
		Price:    decimal.RequireFromString("10.00"),
		Stock:    3,
		IsActive: true,
	}
	require.NoError(t, conn.Create(book).Error)

	order := &models.Order{
		Number:          NewNumber(time.Now()),
		CustomerID:      &customerID,
		Status:          status,
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCard,
		Subtotal:        decimal.RequireFromString("20.00"),
		Total:           decimal.RequireFromString("20.00"),
		PlacedAt:        time.Now().UTC(),
		LineItems: []models.OrderLineItem{{
			BookID:    book.ID,
			Title:     book.Title,
			ISBN:      book.ISBN,
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("10.00"),
			Subtotal:  decimal.RequireFromString("20.00"),
		}},
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}

func TestListForCustomerScopesByOwner(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	mine := uuid.New()
	other := uuid.New()
	seedOrder(t, conn, mine, enums.OrderStatusPending)
	seedOrder(t, conn, mine, enums.OrderStatusShipped)
	seedOrder(t, conn, other, enums.OrderStatusPending)

	rows, total, err := svc.ListForCustomer(ctx, mine, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 2)
}

func TestGetForCustomerHidesForeignOrders(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	owner := uuid.New()
	order := seedOrder(t, conn, owner, enums.OrderStatusPending)

	loaded, err := svc.GetForCustomer(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Number, loaded.Number)
	require.Len(t, loaded.LineItems, 1)

	_, err = svc.GetForCustomer(ctx, uuid.New(), order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestCancelRestocksBooks(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	owner := uuid.New()
	order := seedOrder(t, conn, owner, enums.OrderStatusPending)

	cancelled, err := svc.Cancel(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	var book models.Book
	require.NoError(t, conn.First(&book, "id = ?", order.LineItems[0].BookID).Error)
	assert.Equal(t, 5, book.Stock, "cancelled units must return to stock")
}

func TestCancelRejectsShippedOrders(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	owner := uuid.New()
	order := seedOrder(t, conn, owner, enums.OrderStatusShipped)

	_, err := svc.Cancel(ctx, owner, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestUpdateStatusFollowsTransitions(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending)

	updated, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, updated.Status)

	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusCompleted)
	require.Error(t, err, "processing cannot jump straight to completed")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatus("perdido"))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestListAllFiltersByStatus(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	seedOrder(t, conn, uuid.New(), enums.OrderStatusPending)
	seedOrder(t, conn, uuid.New(), enums.OrderStatusShipped)

	status := enums.OrderStatusShipped
	rows, total, err := svc.ListAll(ctx, pagination.Params{Page: 1, Limit: 10}, ListFilters{Status: &status})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.OrderStatusShipped, rows[0].Status)
}

func TestNewNumberShape(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	number := NewNumber(now)
	assert.Regexp(t, `^LIB-20260829-[0-9A-F]{6}$`, number)
	assert.NotEqual(t, number, NewNumber(now), "numbers must not collide for the same instant")
}
