package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	couponsvc "github.com/libreria-dev/libreria-backend/internal/coupons"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
)

type stubCouponService struct {
	couponsvc.Service

	lastCode string
	coupon   *models.Coupon
	err      error
}

func (s *stubCouponService) Redeemable(ctx context.Context, code string) (*models.Coupon, error) {
	s.lastCode = code
	if s.err != nil {
		return nil, s.err
	}
	return s.coupon, nil
}

func couponCheckRequest(code string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/cupones/"+code+"/validar", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("code", code)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCheckCouponReturnsSlimPayload(t *testing.T) {
	svc := &stubCouponService{coupon: &models.Coupon{Code: "OTONO20", PercentOff: 20, Redemptions: 7}}
	handler := CheckCoupon(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, couponCheckRequest("otono20"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastCode != "otono20" {
		t.Fatalf("expected code passed through, got %q", svc.lastCode)
	}

	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data["code"] != "OTONO20" {
		t.Fatalf("expected canonical code, got %v", body.Data["code"])
	}
	if body.Data["percent_off"] != float64(20) {
		t.Fatalf("expected percent_off 20, got %v", body.Data["percent_off"])
	}
	if _, leaked := body.Data["redemptions"]; leaked {
		t.Fatalf("redemption counter must not reach anonymous callers")
	}
}

func TestCheckCouponMapsValidationError(t *testing.T) {
	svc := &stubCouponService{err: pkgerrors.New(pkgerrors.CodeValidation, "El cupón ha caducado")}
	handler := CheckCoupon(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, couponCheckRequest("CADUCADO"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
}
