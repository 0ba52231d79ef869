package auth

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
	"github.com/libreria-dev/libreria-backend/pkg/db"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/security"
)

func setupRegister(t *testing.T) (RegisterService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:register_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             db.NewWithConn(conn),
		PasswordConfig: config.PasswordConfig{},
	})
	require.NoError(t, err)
	return svc, conn
}

func TestRegisterCreatesCustomer(t *testing.T) {
	svc, conn := setupRegister(t)

	dto, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ana",
		LastName:  "García",
		Email:     " Ana@Example.COM ",
		Password:  "contraseña-larga",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", dto.Email, "emails are normalized")
	assert.Equal(t, enums.UserRoleCustomer, dto.Role)

	var stored models.User
	require.NoError(t, conn.First(&stored, "email = ?", "ana@example.com").Error)
	valid, err := security.VerifyPassword("contraseña-larga", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := setupRegister(t)
	ctx := context.Background()

	req := RegisterRequest{
		FirstName: "Ana",
		LastName:  "García",
		Email:     "ana@example.com",
		Password:  "contraseña-larga",
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setupRegister(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{FirstName: "Ana", LastName: "García", Password: "contraseña-larga"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Register(ctx, RegisterRequest{FirstName: "Ana", LastName: "García", Email: "ana@example.com", Password: "corta"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
