package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Category{},
		&models.Publisher{},
		&models.Author{},
		&models.Book{},
	))
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		TxRunner:      db.NewWithConn(conn),
		BookRepo:      NewBookRepo(conn),
		CategoryRepo:  NewCategoryRepo(conn),
		AuthorRepo:    NewAuthorRepo(conn),
		PublisherRepo: NewPublisherRepo(conn),
	})
	require.NoError(t, err)
	return svc
}

func seedBook(t *testing.T, conn *gorm.DB, book *models.Book) *models.Book {
	t.Helper()
	require.NoError(t, conn.WithContext(context.Background()).Create(book).Error)
	return book
}
