package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/pagination"
)

// BookFilters narrows catalog listings. Nil fields are ignored.
type BookFilters struct {
	Query       string
	CategoryID  *uuid.UUID
	AuthorID    *uuid.UUID
	PublisherID *uuid.UUID
	OnSale      *bool
	PriceMin    *float64
	PriceMax    *float64
	InStock     *bool
	// IncludeInactive is only honored for admin listings.
	IncludeInactive bool
}

// BookRepo persists catalog books.
type BookRepo struct {
	db *gorm.DB
}

// NewBookRepo builds a book repository tied to the provided GORM DB.
func NewBookRepo(db *gorm.DB) *BookRepo {
	return &BookRepo{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *BookRepo) WithTx(tx *gorm.DB) BookRepository {
	return &BookRepo{db: tx}
}

// Create inserts a new book row.
func (r *BookRepo) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// Update saves an existing book row.
func (r *BookRepo) Update(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Omit("Authors", "Category", "Publisher").Save(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes a book by ID.
func (r *BookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{}).Error
}

// FindByID loads a book with its category, publisher, and authors.
func (r *BookRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Publisher").
		Preload("Authors").
		First(&book, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByISBN loads a book by its ISBN without associations.
func (r *BookRepo) FindByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "isbn = ?", isbn).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns a filtered page of books plus the unpaged total.
func (r *BookRepo) List(ctx context.Context, params pagination.Params, filters BookFilters) ([]models.Book, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Book{})

	if !filters.IncludeInactive {
		qb = qb.Where("is_active = ?", true)
	}
	if filters.CategoryID != nil {
		qb = qb.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.PublisherID != nil {
		qb = qb.Where("publisher_id = ?", *filters.PublisherID)
	}
	if filters.AuthorID != nil {
		qb = qb.Where("EXISTS (SELECT 1 FROM book_authors ba WHERE ba.book_id = books.id AND ba.author_id = ?)", *filters.AuthorID)
	}
	if filters.OnSale != nil {
		qb = qb.Where("on_sale = ?", *filters.OnSale)
	}
	if filters.PriceMin != nil {
		qb = qb.Where("price >= ?", *filters.PriceMin)
	}
	if filters.PriceMax != nil {
		qb = qb.Where("price <= ?", *filters.PriceMax)
	}
	if filters.InStock != nil {
		if *filters.InStock {
			qb = qb.Where("stock > 0")
		} else {
			qb = qb.Where("stock = 0")
		}
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(title) LIKE ? OR isbn LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Book
	err := qb.
		Preload("Category").
		Preload("Publisher").
		Preload("Authors").
		Order("created_at DESC").
		Order("id DESC").
		Offset(params.Offset()).
		Limit(pagination.NormalizeLimit(params.Limit)).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ReplaceAuthors overwrites the book's author associations.
func (r *BookRepo) ReplaceAuthors(ctx context.Context, book *models.Book, authorIDs []uuid.UUID) error {
	authors := make([]models.Author, 0, len(authorIDs))
	for _, id := range authorIDs {
		authors = append(authors, models.Author{ID: id})
	}
	return r.db.WithContext(ctx).Model(book).Association("Authors").Replace(authors)
}
