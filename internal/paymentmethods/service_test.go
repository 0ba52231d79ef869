package paymentmethods

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
)

func setupService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:paymeth_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.PaymentMethod{}))

	svc, err := NewService(db.NewWithConn(conn), conn)
	require.NoError(t, err)
	return svc, conn
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestCreateCardRequiresDetails(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Create(ctx, userID, CreateDTO{Kind: enums.PaymentMethodCard, Label: "Visa"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, userID, CreateDTO{
		Kind:        enums.PaymentMethodCard,
		Label:       "Visa",
		LastFour:    strPtr("4242"),
		ExpiryMonth: intPtr(13),
		ExpiryYear:  intPtr(2030),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, userID, CreateDTO{
		Kind:        enums.PaymentMethodCard,
		Label:       "Visa caducada",
		LastFour:    strPtr("4242"),
		ExpiryMonth: intPtr(1),
		ExpiryYear:  intPtr(2020),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	created, err := svc.Create(ctx, userID, CreateDTO{
		Kind:        enums.PaymentMethodCard,
		Label:       "Visa",
		LastFour:    strPtr("4242"),
		ExpiryMonth: intPtr(12),
		ExpiryYear:  intPtr(2035),
	})
	require.NoError(t, err)
	assert.Equal(t, "4242", *created.LastFour)
}

func TestWalletNeedsNoCardDetails(t *testing.T) {
	svc, _ := setupService(t)

	created, err := svc.Create(context.Background(), uuid.New(), CreateDTO{
		Kind:  enums.PaymentMethodWallet,
		Label: "Monedero",
	})
	require.NoError(t, err)
	assert.Nil(t, created.LastFour)
}

func TestDefaultIsExclusive(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, CreateDTO{Kind: enums.PaymentMethodWallet, Label: "Uno", IsDefault: true})
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, CreateDTO{Kind: enums.PaymentMethodBankTransfer, Label: "Dos"})
	require.NoError(t, err)

	_, err = svc.SetDefault(ctx, userID, second.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.PaymentMethod{}).
		Where("user_id = ? AND is_default", userID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var reloaded models.PaymentMethod
	require.NoError(t, conn.First(&reloaded, "id = ?", first.ID).Error)
	assert.False(t, reloaded.IsDefault)
}

func TestOwnershipEnforced(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	created, err := svc.Create(ctx, userID, CreateDTO{Kind: enums.PaymentMethodWallet, Label: "Mio"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, uuid.New(), created.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	err = svc.Delete(ctx, uuid.New(), created.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
