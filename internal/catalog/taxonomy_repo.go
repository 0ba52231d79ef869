package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/pagination"
)

// CategoryRepo persists catalog categories.
type CategoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepo builds a category repository.
func NewCategoryRepo(db *gorm.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepo) Update(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}

func (r *CategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// AuthorRepo persists authors.
type AuthorRepo struct {
	db *gorm.DB
}

// NewAuthorRepo builds an author repository.
func NewAuthorRepo(db *gorm.DB) *AuthorRepo {
	return &AuthorRepo{db: db}
}

func (r *AuthorRepo) Create(ctx context.Context, author *models.Author) (*models.Author, error) {
	if err := r.db.WithContext(ctx).Create(author).Error; err != nil {
		return nil, err
	}
	return author, nil
}

func (r *AuthorRepo) Update(ctx context.Context, author *models.Author) (*models.Author, error) {
	if err := r.db.WithContext(ctx).Save(author).Error; err != nil {
		return nil, err
	}
	return author, nil
}

func (r *AuthorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Author{}).Error
}

func (r *AuthorRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	var author models.Author
	if err := r.db.WithContext(ctx).First(&author, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *AuthorRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Author, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Author
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func (r *AuthorRepo) List(ctx context.Context, params pagination.Params) ([]models.Author, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Author{})

	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Author
	err := qb.
		Order("name ASC").
		Offset(params.Offset()).
		Limit(pagination.NormalizeLimit(params.Limit)).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// PublisherRepo persists publishers.
type PublisherRepo struct {
	db *gorm.DB
}

// NewPublisherRepo builds a publisher repository.
func NewPublisherRepo(db *gorm.DB) *PublisherRepo {
	return &PublisherRepo{db: db}
}

func (r *PublisherRepo) Create(ctx context.Context, publisher *models.Publisher) (*models.Publisher, error) {
	if err := r.db.WithContext(ctx).Create(publisher).Error; err != nil {
		return nil, err
	}
	return publisher, nil
}

func (r *PublisherRepo) Update(ctx context.Context, publisher *models.Publisher) (*models.Publisher, error) {
	if err := r.db.WithContext(ctx).Save(publisher).Error; err != nil {
		return nil, err
	}
	return publisher, nil
}

func (r *PublisherRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Publisher{}).Error
}

func (r *PublisherRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Publisher, error) {
	var publisher models.Publisher
	if err := r.db.WithContext(ctx).First(&publisher, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &publisher, nil
}

func (r *PublisherRepo) List(ctx context.Context) ([]models.Publisher, error) {
	var rows []models.Publisher
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}
