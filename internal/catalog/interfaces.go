package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/pagination"
)

// BookRepository defines persistence operations for catalog books.
type BookRepository interface {
	WithTx(tx *gorm.DB) BookRepository
	Create(ctx context.Context, book *models.Book) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) (*models.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*models.Book, error)
	List(ctx context.Context, params pagination.Params, filters BookFilters) ([]models.Book, int64, error)
	ReplaceAuthors(ctx context.Context, book *models.Book, authorIDs []uuid.UUID) error
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
}

// AuthorRepository defines persistence operations for authors.
type AuthorRepository interface {
	Create(ctx context.Context, author *models.Author) (*models.Author, error)
	Update(ctx context.Context, author *models.Author) (*models.Author, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Author, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Author, error)
	List(ctx context.Context, params pagination.Params) ([]models.Author, int64, error)
}

// PublisherRepository defines persistence operations for publishers.
type PublisherRepository interface {
	Create(ctx context.Context, publisher *models.Publisher) (*models.Publisher, error)
	Update(ctx context.Context, publisher *models.Publisher) (*models.Publisher, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Publisher, error)
	List(ctx context.Context) ([]models.Publisher, error)
}
