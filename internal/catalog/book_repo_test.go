package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/pagination"
)

func TestBookRepoListFilters(t *testing.T) {
	conn := openTestDB(t)
	repo := NewBookRepo(conn)
	ctx := context.Background()

	fiction := &models.Category{Name: "Ficción"}
	require.NoError(t, conn.Create(fiction).Error)

	seedBook(t, conn, &models.Book{
		ISBN:       "9788401352836",
		Title:      "La sombra del viento",
		Price:      decimal.RequireFromString("21.90"),
		Stock:      5,
		IsActive:   true,
		CategoryID: &fiction.ID,
	})
	seedBook(t, conn, &models.Book{
		ISBN:            "9788420471839",
		Title:           "Cien años de soledad",
		Price:           decimal.RequireFromString("19.99"),
		Stock:           0,
		IsActive:        true,
		OnSale:          true,
		DiscountPercent: 25,
	})
	seedBook(t, conn, &models.Book{
		ISBN:     "9780000000001",
		Title:    "Descatalogado",
		Price:    decimal.RequireFromString("5.00"),
		IsActive: false,
	})

	params := pagination.Params{Page: 1, Limit: 10}

	rows, total, err := repo.List(ctx, params, BookFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "inactive books must be hidden by default")
	assert.Len(t, rows, 2)

	rows, total, err = repo.List(ctx, params, BookFilters{IncludeInactive: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 3)

	onSale := true
	rows, _, err = repo.List(ctx, params, BookFilters{OnSale: &onSale})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cien años de soledad", rows[0].Title)

	rows, _, err = repo.List(ctx, params, BookFilters{CategoryID: &fiction.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "La sombra del viento", rows[0].Title)

	inStock := true
	rows, _, err = repo.List(ctx, params, BookFilters{InStock: &inStock})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].Stock)

	rows, _, err = repo.List(ctx, params, BookFilters{Query: "soledad"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "9788420471839", rows[0].ISBN)

	min := 20.0
	rows, _, err = repo.List(ctx, params, BookFilters{PriceMin: &min, IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "La sombra del viento", rows[0].Title)
}

func TestBookRepoListPagination(t *testing.T) {
	conn := openTestDB(t)
	repo := NewBookRepo(conn)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		seedBook(t, conn, &models.Book{
			ISBN:     string(rune('a'+i)) + "-isbn",
			Title:    "Tomo",
			Price:    decimal.RequireFromString("10.00"),
			IsActive: true,
		})
	}

	rows, total, err := repo.List(ctx, pagination.Params{Page: 2, Limit: 3}, BookFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	assert.Len(t, rows, 3)

	rows, _, err = repo.List(ctx, pagination.Params{Page: 3, Limit: 3}, BookFilters{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestBookRepoReplaceAuthors(t *testing.T) {
	conn := openTestDB(t)
	repo := NewBookRepo(conn)
	ctx := context.Background()

	first := &models.Author{Name: "Carlos Ruiz Zafón"}
	second := &models.Author{Name: "Julia Navarro"}
	require.NoError(t, conn.Create(first).Error)
	require.NoError(t, conn.Create(second).Error)

	book := seedBook(t, conn, &models.Book{
		ISBN:     "9788408163381",
		Title:    "El laberinto de los espíritus",
		Price:    decimal.RequireFromString("23.90"),
		IsActive: true,
	})

	require.NoError(t, repo.ReplaceAuthors(ctx, book, []uuid.UUID{first.ID}))

	loaded, err := repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Authors, 1)
	assert.Equal(t, "Carlos Ruiz Zafón", loaded.Authors[0].Name)

	require.NoError(t, repo.ReplaceAuthors(ctx, book, []uuid.UUID{second.ID}))
	loaded, err = repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Authors, 1)
	assert.Equal(t, "Julia Navarro", loaded.Authors[0].Name)
}
