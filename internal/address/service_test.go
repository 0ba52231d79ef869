package address

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
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/types"
)

func setupService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:address_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Address{}))

	svc, err := NewService(db.NewWithConn(conn), conn)
	require.NoError(t, err)
	return svc, conn
}

func validDetails() types.ShippingAddress {
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

func TestCreateAndList(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	created, err := svc.Create(ctx, userID, CreateAddressDTO{Label: "Casa", Details: validDetails(), IsDefault: true})
	require.NoError(t, err)
	assert.True(t, created.IsDefault)

	_, err = svc.Create(ctx, userID, CreateAddressDTO{Label: "Trabajo", Details: validDetails()})
	require.NoError(t, err)

	rows, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Casa", rows[0].Label, "default address sorts first")

	rows, err = svc.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), CreateAddressDTO{Details: validDetails()})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	bad := validDetails()
	bad.PostalCode = ""
	_, err = svc.Create(ctx, uuid.New(), CreateAddressDTO{Label: "Casa", Details: bad})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestDefaultIsExclusive(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, CreateAddressDTO{Label: "Casa", Details: validDetails(), IsDefault: true})
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, CreateAddressDTO{Label: "Trabajo", Details: validDetails()})
	require.NoError(t, err)

	_, err = svc.SetDefault(ctx, userID, second.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.Address{}).
		Where("user_id = ? AND is_default", userID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count, "at most one default per user")

	var reloaded models.Address
	require.NoError(t, conn.First(&reloaded, "id = ?", first.ID).Error)
	assert.False(t, reloaded.IsDefault)
}

func TestOwnershipEnforced(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	created, err := svc.Create(ctx, userID, CreateAddressDTO{Label: "Casa", Details: validDetails()})
	require.NoError(t, err)

	_, err = svc.Update(ctx, uuid.New(), created.ID, CreateAddressDTO{Label: "Robo", Details: validDetails()})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	err = svc.Delete(ctx, uuid.New(), created.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.Delete(ctx, userID, created.ID))
}
