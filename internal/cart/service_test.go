package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/internal/catalog"
	"github.com/libreria-dev/libreria-backend/pkg/db"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
)

func setupService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:cart_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Book{}, &models.Cart{}, &models.CartItem{}))

	svc, err := NewService(ServiceParams{
		TxRunner: db.NewWithConn(conn),
		CartRepo: NewRepository(conn),
		BookRepo: catalog.NewBookRepo(conn),
	})
	require.NoError(t, err)
	return svc, conn
}

func seedBook(t *testing.T, conn *gorm.DB, price string, stock int) *models.Book {
	t.Helper()
	book := &models.Book{
		ISBN:     uuid.NewString(),
		Title:    "Prueba",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, conn.Create(book).Error)
	return book
}

func sessionOwner(token string) Owner {
	return Owner{SessionToken: &token}
}

func TestGetCreatesEmptyCart(t *testing.T) {
	svc, _ := setupService(t)

	dto, err := svc.Get(context.Background(), sessionOwner("visitante-1"))
	require.NoError(t, err)
	assert.Empty(t, dto.Items)
	assert.True(t, dto.Subtotal.IsZero())
}

func TestAddItemCapturesEffectivePrice(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	book := seedBook(t, conn, "19.99", 10)
	book.OnSale = true
	book.DiscountPercent = 25
	require.NoError(t, conn.Save(book).Error)

	dto, err := svc.AddItem(ctx, sessionOwner("visitante-2"), book.ID, 2)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.True(t, dto.Items[0].UnitPrice.Equal(decimal.RequireFromString("14.99")))
	assert.True(t, dto.Items[0].Subtotal.Equal(decimal.RequireFromString("29.98")))
	assert.True(t, dto.Subtotal.Equal(decimal.RequireFromString("29.98")))
}

func TestAddItemMergesExistingLine(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()
	owner := sessionOwner("visitante-3")

	book := seedBook(t, conn, "10.00", 10)

	_, err := svc.AddItem(ctx, owner, book.ID, 2)
	require.NoError(t, err)

	// Price changes between the two adds; the merged line re-captures it.
	book.Price = decimal.RequireFromString("8.00")
	require.NoError(t, conn.Save(book).Error)

	dto, err := svc.AddItem(ctx, owner, book.ID, 3)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, 5, dto.Items[0].Quantity)
	assert.True(t, dto.Items[0].UnitPrice.Equal(decimal.RequireFromString("8.00")))
	assert.True(t, dto.Subtotal.Equal(decimal.RequireFromString("40.00")))
}

func TestAddItemValidation(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()
	owner := sessionOwner("visitante-4")

	_, err := svc.AddItem(ctx, owner, uuid.New(), 1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	book := seedBook(t, conn, "10.00", 10)
	_, err = svc.AddItem(ctx, owner, book.ID, 0)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	book.IsActive = false
	require.NoError(t, conn.Save(book).Error)
	_, err = svc.AddItem(ctx, owner, book.ID, 1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddItem(ctx, Owner{}, book.ID, 1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestUpdateAndRemoveItem(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()
	owner := sessionOwner("visitante-5")

	book := seedBook(t, conn, "15.50", 10)
	dto, err := svc.AddItem(ctx, owner, book.ID, 1)
	require.NoError(t, err)
	itemID := dto.Items[0].ID

	dto, err = svc.UpdateItem(ctx, owner, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, dto.Items[0].Quantity)
	assert.True(t, dto.Subtotal.Equal(decimal.RequireFromString("62.00")))

	_, err = svc.UpdateItem(ctx, owner, uuid.New(), 2)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	dto, err = svc.RemoveItem(ctx, owner, itemID)
	require.NoError(t, err)
	assert.Empty(t, dto.Items)
}

func TestAddItemMergeRejectsOverMaxQuantity(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()
	owner := sessionOwner("visitante-10")

	book := seedBook(t, conn, "10.00", 500)
	dto, err := svc.AddItem(ctx, owner, book.ID, 60)
	require.NoError(t, err)
	require.Equal(t, 60, dto.Items[0].Quantity)

	// A merge past the line maximum fails like a single oversized add
	// would, leaving the existing line untouched.
	_, err = svc.AddItem(ctx, owner, book.ID, 60)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	dto, err = svc.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 60, dto.Items[0].Quantity)
}

func TestAddItemRejectsOverStock(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()
	owner := sessionOwner("visitante-7")

	book := seedBook(t, conn, "20.00", 5)
	dto, err := svc.AddItem(ctx, owner, book.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 3, dto.Items[0].Quantity)

	// Merging past the available stock leaves the line untouched.
	_, err = svc.AddItem(ctx, owner, book.ID, 3)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Contains(t, err.Error(), "Stock insuficiente. Solo quedan 5 unidades")

	dto, err = svc.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, dto.Items[0].Quantity)
	assert.True(t, dto.Subtotal.Equal(decimal.RequireFromString("60.00")))
}

func TestUpdateItemZeroRemovesLine(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()
	owner := sessionOwner("visitante-8")

	pricey := seedBook(t, conn, "100.00", 10)
	cheap := seedBook(t, conn, "50.00", 10)
	_, err := svc.AddItem(ctx, owner, pricey.ID, 2)
	require.NoError(t, err)
	dto, err := svc.AddItem(ctx, owner, cheap.ID, 1)
	require.NoError(t, err)
	require.True(t, dto.Subtotal.Equal(decimal.RequireFromString("250.00")))
	require.Equal(t, 3, dto.ItemCount)

	var priceyItemID uuid.UUID
	for _, item := range dto.Items {
		if item.BookID == pricey.ID {
			priceyItemID = item.ID
		}
	}

	dto, err = svc.UpdateItem(ctx, owner, priceyItemID, 0)
	require.NoError(t, err)
	assert.Len(t, dto.Items, 1)
	assert.Equal(t, 1, dto.ItemCount)
	assert.True(t, dto.Subtotal.Equal(decimal.RequireFromString("50.00")))
}

func TestUpdateItemRechecksStock(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()
	owner := sessionOwner("visitante-9")

	book := seedBook(t, conn, "10.00", 4)
	dto, err := svc.AddItem(ctx, owner, book.ID, 2)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, owner, dto.Items[0].ID, 6)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Contains(t, err.Error(), "Solo quedan 4 unidades")

	dto, err = svc.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, dto.Items[0].Quantity)
}

func TestClear(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()
	owner := sessionOwner("visitante-6")

	first := seedBook(t, conn, "10.00", 10)
	second := seedBook(t, conn, "5.00", 10)
	_, err := svc.AddItem(ctx, owner, first.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, second.ID, 2)
	require.NoError(t, err)

	dto, err := svc.Clear(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, dto.Items)
	assert.True(t, dto.Subtotal.IsZero())

	// The cart row itself survives a clear.
	reloaded, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, dto.ID, reloaded.ID)
}

func TestMergeSessionCartIntoCustomer(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	shared := seedBook(t, conn, "10.00", 10)
	extra := seedBook(t, conn, "7.50", 10)
	customerID := uuid.New()

	_, err := svc.AddItem(ctx, Owner{CustomerID: &customerID}, shared.ID, 1)
	require.NoError(t, err)

	session := sessionOwner("visitante-7")
	_, err = svc.AddItem(ctx, session, shared.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, session, extra.ID, 1)
	require.NoError(t, err)

	dto, err := svc.Merge(ctx, "visitante-7", customerID)
	require.NoError(t, err)
	require.Len(t, dto.Items, 2)
	assert.Equal(t, 4, dto.ItemCount, "quantities for the same book are added")

	// The session cart is gone after the merge.
	_, err = svc.UpdateItem(ctx, session, uuid.New(), 1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
