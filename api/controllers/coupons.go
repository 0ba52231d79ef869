package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/libreria-dev/libreria-backend/api/responses"
	"github.com/libreria-dev/libreria-backend/api/validators"
	couponsvc "github.com/libreria-dev/libreria-backend/internal/coupons"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
)

type createCouponRequest struct {
	Code           string     `json:"code" validate:"required"`
	Description    *string    `json:"description,omitempty"`
	PercentOff     int        `json:"percent_off" validate:"required,min=1,max=100"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxRedemptions *int       `json:"max_redemptions,omitempty"`
}

type updateCouponRequest struct {
	Description    *string    `json:"description,omitempty"`
	PercentOff     *int       `json:"percent_off,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxRedemptions *int       `json:"max_redemptions,omitempty"`
}

type couponResponse struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"`
	Description    *string    `json:"description,omitempty"`
	PercentOff     int        `json:"percent_off"`
	IsActive       bool       `json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxRedemptions *int       `json:"max_redemptions,omitempty"`
	Redemptions    int        `json:"redemptions"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newCouponResponse(c *models.Coupon) couponResponse {
	return couponResponse{
		ID:             c.ID,
		Code:           c.Code,
		Description:    c.Description,
		PercentOff:     c.PercentOff,
		IsActive:       c.IsActive,
		ExpiresAt:      c.ExpiresAt,
		MaxRedemptions: c.MaxRedemptions,
		Redemptions:    c.Redemptions,
		CreatedAt:      c.CreatedAt,
	}
}

func ListCoupons(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, total, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]couponResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newCouponResponse(&rows[i]))
		}
		responses.WritePage(w, out, params, total)
	}
}

func CreateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var body createCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Create(r.Context(), couponsvc.CreateCouponDTO{
			Code:           body.Code,
			Description:    body.Description,
			PercentOff:     body.PercentOff,
			ExpiresAt:      body.ExpiresAt,
			MaxRedemptions: body.MaxRedemptions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCouponResponse(row))
	}
}

func UpdateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		id, err := pathID(r, "couponID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Update(r.Context(), id, couponsvc.UpdateCouponDTO{
			Description:    body.Description,
			PercentOff:     body.PercentOff,
			IsActive:       body.IsActive,
			ExpiresAt:      body.ExpiresAt,
			MaxRedemptions: body.MaxRedemptions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCouponResponse(row))
	}
}

func DeleteCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		id, err := pathID(r, "couponID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type couponCheckResponse struct {
	Code       string `json:"code"`
	PercentOff int    `json:"percent_off"`
}

// CheckCoupon tells the storefront whether a code can still be applied.
// The response stays slim so redemption counters and expiry dates are
// not leaked to anonymous callers.
func CheckCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		coupon, err := svc.Redeemable(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, couponCheckResponse{
			Code:       coupon.Code,
			PercentOff: coupon.PercentOff,
		})
	}
}
