package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/libreria-dev/libreria-backend/internal/catalog"
	"github.com/libreria-dev/libreria-backend/pkg/pagination"
)

type stubCatalogService struct {
	catalog.Service

	lastParams  pagination.Params
	lastFilters catalog.BookFilters
	lastID      uuid.UUID
	lastCreate  catalog.CreateBookDTO
	books       []catalog.BookDTO
	book        *catalog.BookDTO
	total       int64
	err         error
}

func (s *stubCatalogService) ListBooks(ctx context.Context, params pagination.Params, filters catalog.BookFilters) ([]catalog.BookDTO, int64, error) {
	s.lastParams = params
	s.lastFilters = filters
	return s.books, s.total, s.err
}

func (s *stubCatalogService) GetBook(ctx context.Context, id uuid.UUID) (*catalog.BookDTO, error) {
	s.lastID = id
	return s.book, s.err
}

func (s *stubCatalogService) CreateBook(ctx context.Context, dto catalog.CreateBookDTO) (*catalog.BookDTO, error) {
	s.lastCreate = dto
	return s.book, s.err
}

func TestListBooksParsesFilters(t *testing.T) {
	svc := &stubCatalogService{books: []catalog.BookDTO{}, total: 0}
	handler := ListBooks(svc, nil)

	categoryID := uuid.New()
	url := "/libros?page=2&limit=10&q=quijote&category_id=" + categoryID.String() + "&on_sale=true&price_min=5&price_max=30"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastParams.Page != 2 || svc.lastParams.Limit != 10 {
		t.Fatalf("unexpected pagination %+v", svc.lastParams)
	}
	if svc.lastFilters.Query != "quijote" {
		t.Fatalf("expected query quijote got %q", svc.lastFilters.Query)
	}
	if svc.lastFilters.CategoryID == nil || *svc.lastFilters.CategoryID != categoryID {
		t.Fatalf("expected category filter")
	}
	if svc.lastFilters.OnSale == nil || !*svc.lastFilters.OnSale {
		t.Fatalf("expected on_sale filter")
	}
	if svc.lastFilters.PriceMin == nil || *svc.lastFilters.PriceMin != 5 {
		t.Fatalf("expected price_min 5")
	}
	if svc.lastFilters.PriceMax == nil || *svc.lastFilters.PriceMax != 30 {
		t.Fatalf("expected price_max 30")
	}
	if svc.lastFilters.IncludeInactive {
		t.Fatalf("public listing must never include inactive titles")
	}
}

func TestListBooksRejectsBadCategoryID(t *testing.T) {
	handler := ListBooks(&stubCatalogService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/libros?category_id=nope", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminListBooksIncludesInactive(t *testing.T) {
	svc := &stubCatalogService{}
	handler := AdminListBooks(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/libros?include_inactive=true", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !svc.lastFilters.IncludeInactive {
		t.Fatalf("expected include_inactive filter set")
	}
}

func TestGetBookPathParam(t *testing.T) {
	svc := &stubCatalogService{book: &catalog.BookDTO{Title: "El Quijote"}}

	router := chi.NewRouter()
	router.Get("/libros/{bookID}", GetBook(svc, nil))

	bookID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/libros/"+bookID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastID != bookID {
		t.Fatalf("expected id %s got %s", bookID, svc.lastID)
	}
}

func TestGetBookRejectsBadID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/libros/{bookID}", GetBook(&stubCatalogService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/libros/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCreateBook(t *testing.T) {
	svc := &stubCatalogService{book: &catalog.BookDTO{}}
	handler := CreateBook(svc, nil)

	payload := `{"isbn":"9780307474728","title":"Cien años de soledad","price":"21.50","stock":4}`
	req := httptest.NewRequest(http.MethodPost, "/admin/libros", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastCreate.ISBN != "9780307474728" {
		t.Fatalf("unexpected isbn %q", svc.lastCreate.ISBN)
	}
	if svc.lastCreate.Price.StringFixed(2) != "21.50" {
		t.Fatalf("unexpected price %s", svc.lastCreate.Price)
	}
}

func TestCreateBookMissingTitle(t *testing.T) {
	handler := CreateBook(&stubCatalogService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/libros", bytes.NewBufferString(`{"isbn":"123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestNilCatalogService(t *testing.T) {
	handler := ListBooks(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/libros", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
