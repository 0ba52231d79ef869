package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/libreria-dev/libreria-backend/api/responses"
	"github.com/libreria-dev/libreria-backend/api/validators"
	pmsvc "github.com/libreria-dev/libreria-backend/internal/paymentmethods"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
)

type paymentMethodRequest struct {
	Kind        string  `json:"kind" validate:"required"`
	Label       string  `json:"label" validate:"required"`
	LastFour    *string `json:"last_four,omitempty"`
	ExpiryMonth *int    `json:"expiry_month,omitempty"`
	ExpiryYear  *int    `json:"expiry_year,omitempty"`
	IsDefault   bool    `json:"is_default"`
}

type paymentMethodResponse struct {
	ID          uuid.UUID           `json:"id"`
	Kind        enums.PaymentMethod `json:"kind"`
	Label       string              `json:"label"`
	LastFour    *string             `json:"last_four,omitempty"`
	ExpiryMonth *int                `json:"expiry_month,omitempty"`
	ExpiryYear  *int                `json:"expiry_year,omitempty"`
	IsDefault   bool                `json:"is_default"`
	CreatedAt   time.Time           `json:"created_at"`
}

func newPaymentMethodResponse(m *models.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{
		ID:          m.ID,
		Kind:        m.Kind,
		Label:       m.Label,
		LastFour:    m.LastFour,
		ExpiryMonth: m.ExpiryMonth,
		ExpiryYear:  m.ExpiryYear,
		IsDefault:   m.IsDefault,
		CreatedAt:   m.CreatedAt,
	}
}

func ListPaymentMethods(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]paymentMethodResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newPaymentMethodResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func CreatePaymentMethod(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body paymentMethodRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParsePaymentMethod(body.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
			return
		}

		row, err := svc.Create(r.Context(), userID, pmsvc.CreateDTO{
			Kind:        kind,
			Label:       body.Label,
			LastFour:    body.LastFour,
			ExpiryMonth: body.ExpiryMonth,
			ExpiryYear:  body.ExpiryYear,
			IsDefault:   body.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPaymentMethodResponse(row))
	}
}

func DeletePaymentMethod(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methodID, err := pathID(r, "methodID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, methodID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func SetDefaultPaymentMethod(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methodID, err := pathID(r, "methodID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.SetDefault(r.Context(), userID, methodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentMethodResponse(row))
	}
}
