package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/internal/users"
	"github.com/libreria-dev/libreria-backend/pkg/config"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
	"github.com/libreria-dev/libreria-backend/pkg/security"
)

type stubSessionManager struct {
	generated []string
	fail      bool
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	if s.fail {
		return "", fmt.Errorf("redis down")
	}
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

type recordingMerger struct {
	token      string
	customerID uuid.UUID
	err        error
}

func (m *recordingMerger) Merge(ctx context.Context, sessionToken string, customerID uuid.UUID) error {
	m.token = sessionToken
	m.customerID = customerID
	return m.err
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "libreria-test",
		ExpirationMinutes: 15,
	}
}

func setupLogin(t *testing.T, merger cartMerger) (Service, *gorm.DB, *stubSessionManager) {
	t.Helper()

	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessions,
		CartMerger:     merger,
		JWTConfig:      testJWTConfig(),
	})
	require.NoError(t, err)
	return svc, conn, sessions
}

func seedUser(t *testing.T, conn *gorm.DB, email, password string, role enums.UserRole, active bool) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Ana",
		LastName:     "García",
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func TestLoginSuccess(t *testing.T) {
	merger := &recordingMerger{}
	svc, conn, sessions := setupLogin(t, merger)
	ctx := context.Background()

	user := seedUser(t, conn, "ana@example.com", "contraseña-larga", enums.UserRoleCustomer, true)

	token := "carrito-anonimo"
	resp, err := svc.Login(ctx, LoginRequest{
		Email:            "  Ana@Example.com ",
		Password:         "contraseña-larga",
		CartSessionToken: &token,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotNil(t, resp.User.LastLoginAt)
	require.Len(t, sessions.generated, 1)

	assert.Equal(t, "carrito-anonimo", merger.token, "anonymous cart merges on login")
	assert.Equal(t, user.ID, merger.customerID)
}

func TestLoginLogsFailedCartMerge(t *testing.T) {
	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	var logs bytes.Buffer
	merger := &recordingMerger{err: errors.New("carrito no disponible")}
	svc, err := NewService(ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: &stubSessionManager{},
		CartMerger:     merger,
		JWTConfig:      testJWTConfig(),
		Logger:         logger.New(logger.Options{ServiceName: "auth-test", Output: &logs}),
	})
	require.NoError(t, err)

	user := seedUser(t, conn, "lectora@example.com", "contraseña-larga", enums.UserRoleCustomer, true)

	token := "carrito-perdido"
	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:            "lectora@example.com",
		Password:         "contraseña-larga",
		CartSessionToken: &token,
	})
	require.NoError(t, err, "a failed merge must not block the login")
	assert.NotEmpty(t, resp.AccessToken)

	assert.Contains(t, logs.String(), "cart merge after login failed")
	assert.Contains(t, logs.String(), "carrito no disponible")
	assert.Contains(t, logs.String(), user.ID.String())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, conn, _ := setupLogin(t, nil)
	ctx := context.Background()

	seedUser(t, conn, "ana@example.com", "contraseña-larga", enums.UserRoleCustomer, true)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nadie@example.com", "contraseña-larga"},
		{"wrong password", "ana@example.com", "incorrecta"},
		{"empty email", "", "contraseña-larga"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, LoginRequest{Email: tc.email, Password: tc.password})
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
		})
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, conn, _ := setupLogin(t, nil)

	seedUser(t, conn, "baja@example.com", "contraseña-larga", enums.UserRoleCustomer, false)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "baja@example.com", Password: "contraseña-larga"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestAdminLoginRequiresAdminRole(t *testing.T) {
	svc, conn, _ := setupLogin(t, nil)
	ctx := context.Background()

	seedUser(t, conn, "cliente@example.com", "contraseña-larga", enums.UserRoleCustomer, true)
	seedUser(t, conn, "admin@example.com", "contraseña-larga", enums.UserRoleAdmin, true)

	_, err := svc.AdminLogin(ctx, LoginRequest{Email: "cliente@example.com", Password: "contraseña-larga"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	resp, err := svc.AdminLogin(ctx, LoginRequest{Email: "admin@example.com", Password: "contraseña-larga"})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, resp.User.Role)
}

func TestLoginSessionStoreFailure(t *testing.T) {
	svc, conn, sessions := setupLogin(t, nil)
	sessions.fail = true

	seedUser(t, conn, "ana@example.com", "contraseña-larga", enums.UserRoleCustomer, true)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "contraseña-larga"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInternal))
}
