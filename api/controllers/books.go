package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/libreria-dev/libreria-backend/api/responses"
	"github.com/libreria-dev/libreria-backend/api/validators"
	"github.com/libreria-dev/libreria-backend/internal/catalog"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
)

const maxSearchQueryLen = 200

type createBookRequest struct {
	ISBN            string          `json:"isbn" validate:"required"`
	Title           string          `json:"title" validate:"required"`
	Description     *string         `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
	OnSale          bool            `json:"on_sale"`
	DiscountPercent int             `json:"discount_percent"`
	CoverURL        *string         `json:"cover_url,omitempty"`
	PublishedAt     *time.Time      `json:"published_at,omitempty"`
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	PublisherID     *uuid.UUID      `json:"publisher_id,omitempty"`
	AuthorIDs       []uuid.UUID     `json:"author_ids,omitempty"`
}

type updateBookRequest struct {
	Title           *string          `json:"title,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Stock           *int             `json:"stock,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
	OnSale          *bool            `json:"on_sale,omitempty"`
	DiscountPercent *int             `json:"discount_percent,omitempty"`
	CoverURL        *string          `json:"cover_url,omitempty"`
	PublishedAt     *time.Time       `json:"published_at,omitempty"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	PublisherID     *uuid.UUID       `json:"publisher_id,omitempty"`
	AuthorIDs       []uuid.UUID      `json:"author_ids,omitempty"`
}

// parseBookFilters reads the catalog search filters off the query
// string. Unknown parameters are ignored.
func parseBookFilters(r *http.Request) (catalog.BookFilters, error) {
	q := r.URL.Query()
	filters := catalog.BookFilters{Query: validators.SanitizeString(q.Get("q"), maxSearchQueryLen)}

	for param, target := range map[string]**uuid.UUID{
		"category_id":  &filters.CategoryID,
		"author_id":    &filters.AuthorID,
		"publisher_id": &filters.PublisherID,
	} {
		raw := strings.TrimSpace(q.Get(param))
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return catalog.BookFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
		}
		*target = &id
	}

	for param, target := range map[string]**bool{
		"on_sale":  &filters.OnSale,
		"in_stock": &filters.InStock,
	} {
		raw := strings.TrimSpace(q.Get(param))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return catalog.BookFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
		}
		*target = &value
	}

	for param, target := range map[string]**float64{
		"price_min": &filters.PriceMin,
		"price_max": &filters.PriceMax,
	} {
		raw := strings.TrimSpace(q.Get(param))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return catalog.BookFilters{}, pkgerrors.New(pkgerrors.CodeValidation, param+" must be a non-negative number")
		}
		*target = &value
	}

	return filters, nil
}

// ListBooks serves the public storefront listing. Inactive titles are
// never shown here.
func ListBooks(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return listBooks(svc, logg, false)
}

// AdminListBooks serves the back-office listing, including inactive
// titles when include_inactive=true.
func AdminListBooks(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return listBooks(svc, logg, true)
}

func listBooks(svc catalog.Service, logg *logger.Logger, admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := parseBookFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if admin {
			filters.IncludeInactive, _ = strconv.ParseBool(r.URL.Query().Get("include_inactive"))
		}

		books, total, err := svc.ListBooks(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePage(w, books, params, total)
	}
}

func GetBook(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := pathID(r, "bookID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.GetBook(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}

func CreateBook(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createBookRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.CreateBook(r.Context(), catalog.CreateBookDTO{
			ISBN:            body.ISBN,
			Title:           body.Title,
			Description:     body.Description,
			Price:           body.Price,
			Stock:           body.Stock,
			OnSale:          body.OnSale,
			DiscountPercent: body.DiscountPercent,
			CoverURL:        body.CoverURL,
			PublishedAt:     body.PublishedAt,
			CategoryID:      body.CategoryID,
			PublisherID:     body.PublisherID,
			AuthorIDs:       body.AuthorIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, book)
	}
}

func UpdateBook(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := pathID(r, "bookID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateBookRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.UpdateBook(r.Context(), id, catalog.UpdateBookDTO{
			Title:           body.Title,
			Description:     body.Description,
			Price:           body.Price,
			Stock:           body.Stock,
			IsActive:        body.IsActive,
			OnSale:          body.OnSale,
			DiscountPercent: body.DiscountPercent,
			CoverURL:        body.CoverURL,
			PublishedAt:     body.PublishedAt,
			CategoryID:      body.CategoryID,
			PublisherID:     body.PublisherID,
			AuthorIDs:       body.AuthorIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}

func DeleteBook(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := pathID(r, "bookID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteBook(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
