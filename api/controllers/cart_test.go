package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/libreria-dev/libreria-backend/api/middleware"
	cartsvc "github.com/libreria-dev/libreria-backend/internal/cart"
)

type stubCartService struct {
	cartsvc.Service

	lastOwner  cartsvc.Owner
	lastBookID uuid.UUID
	lastItemID uuid.UUID
	lastQty    int
	cart       *cartsvc.CartDTO
	err        error
}

func (s *stubCartService) Get(ctx context.Context, owner cartsvc.Owner) (*cartsvc.CartDTO, error) {
	s.lastOwner = owner
	return s.cart, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, owner cartsvc.Owner, bookID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	s.lastOwner = owner
	s.lastBookID = bookID
	s.lastQty = quantity
	return s.cart, s.err
}

func (s *stubCartService) UpdateItem(ctx context.Context, owner cartsvc.Owner, itemID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	s.lastOwner = owner
	s.lastItemID = itemID
	s.lastQty = quantity
	return s.cart, s.err
}

func withCartSession(req *http.Request, token string) *http.Request {
	return req.WithContext(middleware.WithCartSession(req.Context(), token))
}

func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func TestGetCartUsesSessionToken(t *testing.T) {
	svc := &stubCartService{cart: &cartsvc.CartDTO{ID: uuid.New()}}
	handler := GetCart(svc, nil)

	req := withCartSession(httptest.NewRequest(http.MethodGet, "/carrito", nil), "visitante-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastOwner.SessionToken == nil || *svc.lastOwner.SessionToken != "visitante-1" {
		t.Fatalf("expected session owner, got %+v", svc.lastOwner)
	}
	if svc.lastOwner.CustomerID != nil {
		t.Fatalf("expected no customer id on anonymous cart")
	}
}

func TestGetCartPrefersLoggedInCustomer(t *testing.T) {
	svc := &stubCartService{cart: &cartsvc.CartDTO{}}
	handler := GetCart(svc, nil)

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/carrito", nil)
	req = withCartSession(req, "visitante-1")
	req = withUser(req, userID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastOwner.CustomerID == nil || *svc.lastOwner.CustomerID != userID {
		t.Fatalf("expected customer owner, got %+v", svc.lastOwner)
	}
}

func TestGetCartMissingIdentity(t *testing.T) {
	handler := GetCart(&stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/carrito", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAddCartItem(t *testing.T) {
	svc := &stubCartService{cart: &cartsvc.CartDTO{}}
	handler := AddCartItem(svc, nil)

	bookID := uuid.New()
	payload, _ := json.Marshal(map[string]any{"book_id": bookID.String(), "quantity": 3})
	req := withCartSession(httptest.NewRequest(http.MethodPost, "/carrito/items", bytes.NewReader(payload)), "visitante-1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastBookID != bookID {
		t.Fatalf("expected book %s got %s", bookID, svc.lastBookID)
	}
	if svc.lastQty != 3 {
		t.Fatalf("expected quantity 3 got %d", svc.lastQty)
	}
}

func TestAddCartItemRejectsZeroQuantity(t *testing.T) {
	handler := AddCartItem(&stubCartService{}, nil)

	payload := `{"book_id":"` + uuid.NewString() + `","quantity":0}`
	req := withCartSession(httptest.NewRequest(http.MethodPost, "/carrito/items", bytes.NewBufferString(payload)), "visitante-1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestUpdateCartItemPathParam(t *testing.T) {
	svc := &stubCartService{cart: &cartsvc.CartDTO{}}

	router := chi.NewRouter()
	router.Put("/carrito/items/{itemID}", UpdateCartItem(svc, nil))

	itemID := uuid.New()
	req := withCartSession(httptest.NewRequest(http.MethodPut, "/carrito/items/"+itemID.String(), bytes.NewBufferString(`{"quantity":2}`)), "visitante-1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastItemID != itemID {
		t.Fatalf("expected item %s got %s", itemID, svc.lastItemID)
	}
	if svc.lastQty != 2 {
		t.Fatalf("expected quantity 2 got %d", svc.lastQty)
	}
}
