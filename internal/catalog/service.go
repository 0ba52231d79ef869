package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog management and browsing.
type Service interface {
	CreateBook(ctx context.Context, dto CreateBookDTO) (*BookDTO, error)
	UpdateBook(ctx context.Context, id uuid.UUID, dto UpdateBookDTO) (*BookDTO, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	GetBook(ctx context.Context, id uuid.UUID) (*BookDTO, error)
	ListBooks(ctx context.Context, params pagination.Params, filters BookFilters) ([]BookDTO, int64, error)

	CreateCategory(ctx context.Context, name string, description *string) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string, description *string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]models.Category, error)

	CreateAuthor(ctx context.Context, name string, bio *string) (*models.Author, error)
	UpdateAuthor(ctx context.Context, id uuid.UUID, name string, bio *string) (*models.Author, error)
	DeleteAuthor(ctx context.Context, id uuid.UUID) error
	ListAuthors(ctx context.Context, params pagination.Params) ([]models.Author, int64, error)

	CreatePublisher(ctx context.Context, name string, website *string) (*models.Publisher, error)
	UpdatePublisher(ctx context.Context, id uuid.UUID, name string, website *string) (*models.Publisher, error)
	DeletePublisher(ctx context.Context, id uuid.UUID) error
	ListPublishers(ctx context.Context) ([]models.Publisher, error)
}

type service struct {
	tx         txRunner
	books      BookRepository
	categories CategoryRepository
	authors    AuthorRepository
	publishers PublisherRepository
}

// ServiceParams bundles the dependencies required to build a catalog service.
type ServiceParams struct {
	TxRunner      txRunner
	BookRepo      BookRepository
	CategoryRepo  CategoryRepository
	AuthorRepo    AuthorRepository
	PublisherRepo PublisherRepository
}

// NewService constructs a catalog service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.BookRepo == nil {
		return nil, fmt.Errorf("book repository is required")
	}
	if params.CategoryRepo == nil {
		return nil, fmt.Errorf("category repository is required")
	}
	if params.AuthorRepo == nil {
		return nil, fmt.Errorf("author repository is required")
	}
	if params.PublisherRepo == nil {
		return nil, fmt.Errorf("publisher repository is required")
	}
	return &service{
		tx:         params.TxRunner,
		books:      params.BookRepo,
		categories: params.CategoryRepo,
		authors:    params.AuthorRepo,
		publishers: params.PublisherRepo,
	}, nil
}

func (s *service) CreateBook(ctx context.Context, dto CreateBookDTO) (*BookDTO, error) {
	isbn := strings.TrimSpace(dto.ISBN)
	if isbn == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "isbn is required")
	}
	if strings.TrimSpace(dto.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if dto.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if dto.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if dto.DiscountPercent < 0 || dto.DiscountPercent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be between 0 and 100")
	}
	if err := s.checkReferences(ctx, dto.CategoryID, dto.PublisherID, dto.AuthorIDs); err != nil {
		return nil, err
	}

	book := &models.Book{
		ISBN:            isbn,
		Title:           strings.TrimSpace(dto.Title),
		Description:     dto.Description,
		Price:           dto.Price.Round(2),
		Stock:           dto.Stock,
		IsActive:        true,
		OnSale:          dto.OnSale,
		DiscountPercent: dto.DiscountPercent,
		CoverURL:        dto.CoverURL,
		PublishedAt:     dto.PublishedAt,
		CategoryID:      dto.CategoryID,
		PublisherID:     dto.PublisherID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		books := s.books.WithTx(tx)
		if _, err := books.Create(ctx, book); err != nil {
			if db.IsUniqueViolation(err, "idx_books_isbn") {
				return pkgerrors.New(pkgerrors.CodeConflict, "isbn already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create book")
		}
		if len(dto.AuthorIDs) > 0 {
			if err := books.ReplaceAuthors(ctx, book, dto.AuthorIDs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attach authors")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetBook(ctx, book.ID)
}

func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, dto UpdateBookDTO) (*BookDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}

	if dto.Title != nil {
		if strings.TrimSpace(*dto.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		book.Title = strings.TrimSpace(*dto.Title)
	}
	if dto.Description != nil {
		book.Description = dto.Description
	}
	if dto.Price != nil {
		if dto.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		book.Price = dto.Price.Round(2)
	}
	if dto.Stock != nil {
		if *dto.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		book.Stock = *dto.Stock
	}
	if dto.IsActive != nil {
		book.IsActive = *dto.IsActive
	}
	if dto.OnSale != nil {
		book.OnSale = *dto.OnSale
	}
	if dto.DiscountPercent != nil {
		if *dto.DiscountPercent < 0 || *dto.DiscountPercent > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be between 0 and 100")
		}
		book.DiscountPercent = *dto.DiscountPercent
	}
	if dto.CoverURL != nil {
		book.CoverURL = dto.CoverURL
	}
	if dto.PublishedAt != nil {
		book.PublishedAt = dto.PublishedAt
	}
	if dto.CategoryID != nil {
		book.CategoryID = dto.CategoryID
	}
	if dto.PublisherID != nil {
		book.PublisherID = dto.PublisherID
	}
	if err := s.checkReferences(ctx, dto.CategoryID, dto.PublisherID, dto.AuthorIDs); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		books := s.books.WithTx(tx)
		if _, err := books.Update(ctx, book); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update book")
		}
		if dto.AuthorIDs != nil {
			if err := books.ReplaceAuthors(ctx, book, dto.AuthorIDs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace authors")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetBook(ctx, book.ID)
}

func (s *service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	if _, err := s.books.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}
	if err := s.books.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete book")
	}
	return nil
}

func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*BookDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}
	return FromBookModel(book), nil
}

func (s *service) ListBooks(ctx context.Context, params pagination.Params, filters BookFilters) ([]BookDTO, int64, error) {
	rows, total, err := s.books.List(ctx, params, filters)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list books")
	}
	dtos := make([]BookDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromBookModel(&rows[i]))
	}
	return dtos, total, nil
}

func (s *service) checkReferences(ctx context.Context, categoryID, publisherID *uuid.UUID, authorIDs []uuid.UUID) error {
	if categoryID != nil {
		if _, err := s.categories.FindByID(ctx, *categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
		}
	}
	if publisherID != nil {
		if _, err := s.publishers.FindByID(ctx, *publisherID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "publisher does not exist")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load publisher")
		}
	}
	if len(authorIDs) > 0 {
		found, err := s.authors.FindByIDs(ctx, authorIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load authors")
		}
		if len(found) != len(authorIDs) {
			return pkgerrors.New(pkgerrors.CodeValidation, "one or more authors do not exist")
		}
	}
	return nil
}

func (s *service) CreateCategory(ctx context.Context, name string, description *string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category, err := s.categories.Create(ctx, &models.Category{Name: name, Description: description})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_categories_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return category, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, name string, description *string) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	if name = strings.TrimSpace(name); name != "" {
		category.Name = name
	}
	if description != nil {
		category.Description = description
	}
	if _, err := s.categories.Update(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
	}
	return category, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.categories.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return rows, nil
}

func (s *service) CreateAuthor(ctx context.Context, name string, bio *string) (*models.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	author, err := s.authors.Create(ctx, &models.Author{Name: name, Bio: bio})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create author")
	}
	return author, nil
}

func (s *service) UpdateAuthor(ctx context.Context, id uuid.UUID, name string, bio *string) (*models.Author, error) {
	author, err := s.authors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "author not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load author")
	}
	if name = strings.TrimSpace(name); name != "" {
		author.Name = name
	}
	if bio != nil {
		author.Bio = bio
	}
	if _, err := s.authors.Update(ctx, author); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update author")
	}
	return author, nil
}

func (s *service) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	if _, err := s.authors.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "author not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load author")
	}
	if err := s.authors.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete author")
	}
	return nil
}

func (s *service) ListAuthors(ctx context.Context, params pagination.Params) ([]models.Author, int64, error) {
	rows, total, err := s.authors.List(ctx, params)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list authors")
	}
	return rows, total, nil
}

func (s *service) CreatePublisher(ctx context.Context, name string, website *string) (*models.Publisher, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	publisher, err := s.publishers.Create(ctx, &models.Publisher{Name: name, Website: website})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_publishers_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "publisher name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create publisher")
	}
	return publisher, nil
}

func (s *service) UpdatePublisher(ctx context.Context, id uuid.UUID, name string, website *string) (*models.Publisher, error) {
	publisher, err := s.publishers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "publisher not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load publisher")
	}
	if name = strings.TrimSpace(name); name != "" {
		publisher.Name = name
	}
	if website != nil {
		publisher.Website = website
	}
	if _, err := s.publishers.Update(ctx, publisher); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update publisher")
	}
	return publisher, nil
}

func (s *service) DeletePublisher(ctx context.Context, id uuid.UUID) error {
	if _, err := s.publishers.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "publisher not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load publisher")
	}
	if err := s.publishers.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete publisher")
	}
	return nil
}

func (s *service) ListPublishers(ctx context.Context) ([]models.Publisher, error) {
	rows, err := s.publishers.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list publishers")
	}
	return rows, nil
}
