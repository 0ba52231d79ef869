package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/config"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/security"
)

func setupProfile(t *testing.T) (Service, *models.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:users_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	hash, err := security.HashPassword("contraseña-larga", config.PasswordConfig{})
	require.NoError(t, err)
	user := &models.User{
		Email:        "ana@example.com",
		PasswordHash: hash,
		FirstName:    "Ana",
		LastName:     "García",
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)

	svc, err := NewService(NewRepository(conn), config.PasswordConfig{})
	require.NoError(t, err)
	return svc, user
}

func TestGetProfile(t *testing.T) {
	svc, user := setupProfile(t)

	dto, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", dto.Email)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateProfilePartial(t *testing.T) {
	svc, user := setupProfile(t)

	first := "Anabel"
	dto, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileDTO{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Anabel", dto.FirstName)
	assert.Equal(t, "García", dto.LastName, "unset fields keep their value")

	empty := "  "
	_, err = svc.UpdateProfile(context.Background(), user.ID, UpdateProfileDTO{LastName: &empty})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestChangePassword(t *testing.T) {
	svc, user := setupProfile(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user.ID, ChangePasswordDTO{
		CurrentPassword: "equivocada",
		NewPassword:     "otra-contraseña",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	err = svc.ChangePassword(ctx, user.ID, ChangePasswordDTO{
		CurrentPassword: "contraseña-larga",
		NewPassword:     "otra-contraseña",
	})
	require.NoError(t, err)

	updated, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated)
}
