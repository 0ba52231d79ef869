package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/libreria-dev/libreria-backend/api/responses"
	"github.com/libreria-dev/libreria-backend/api/validators"
	checkoutsvc "github.com/libreria-dev/libreria-backend/internal/checkout"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
	"github.com/libreria-dev/libreria-backend/pkg/types"
)

type setShippingRequest struct {
	Address types.ShippingAddress `json:"address"`
}

type setPaymentRequest struct {
	Method string `json:"method" validate:"required"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

type confirmCheckoutRequest struct {
	CardLastFour *string `json:"card_last_four,omitempty"`
}

type checkoutSessionResponse struct {
	ID              uuid.UUID              `json:"id"`
	Status          enums.CheckoutStatus   `json:"status"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address,omitempty"`
	PaymentMethod   *enums.PaymentMethod   `json:"payment_method,omitempty"`
	CouponCode      *string                `json:"coupon_code,omitempty"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	Discount        decimal.Decimal        `json:"discount"`
	Total           decimal.Decimal        `json:"total"`
	FailureReason   *string                `json:"failure_reason,omitempty"`
	PaymentAttempts int                    `json:"payment_attempts"`
	OrderID         *uuid.UUID             `json:"order_id,omitempty"`
	ConfirmedAt     *time.Time             `json:"confirmed_at,omitempty"`
}

func newCheckoutSessionResponse(s *models.CheckoutSession) checkoutSessionResponse {
	return checkoutSessionResponse{
		ID:              s.ID,
		Status:          s.Status,
		ShippingAddress: s.ShippingAddress,
		PaymentMethod:   s.PaymentMethod,
		CouponCode:      s.CouponCode,
		Subtotal:        s.Subtotal,
		Discount:        s.Discount,
		Total:           s.Total,
		FailureReason:   s.FailureReason,
		PaymentAttempts: s.PaymentAttempts,
		OrderID:         s.OrderID,
		ConfirmedAt:     s.ConfirmedAt,
	}
}

// StartCheckout opens (or resumes) a checkout session for the owner's
// cart.
func StartCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Start(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutSessionResponse(session))
	}
}

func GetCheckoutSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Get(r.Context(), owner, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionResponse(session))
	}
}

func SetCheckoutShipping(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setShippingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SetShipping(r.Context(), owner, sessionID, body.Address)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionResponse(session))
	}
}

func SetCheckoutPayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(body.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid method"))
			return
		}

		session, err := svc.SetPayment(r.Context(), owner, sessionID, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionResponse(session))
	}
}

func ApplyCheckoutCoupon(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body applyCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.ApplyCoupon(r.Context(), owner, sessionID, body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionResponse(session))
	}
}

func RemoveCheckoutCoupon(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.RemoveCoupon(r.Context(), owner, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionResponse(session))
	}
}

// CheckoutBack returns a payment_pending session to draft.
func CheckoutBack(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Back(r.Context(), owner, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionResponse(session))
	}
}

// ConfirmCheckout charges the session and, on success, produces the
// order.
func ConfirmCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := pathID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The body is optional: only card payments carry details.
		var body confirmCheckoutRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		session, err := svc.Confirm(r.Context(), owner, sessionID, checkoutsvc.ConfirmInput{
			CardLastFour: body.CardLastFour,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionResponse(session))
	}
}
