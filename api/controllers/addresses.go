package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/libreria-dev/libreria-backend/api/responses"
	"github.com/libreria-dev/libreria-backend/api/validators"
	addresssvc "github.com/libreria-dev/libreria-backend/internal/address"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
	"github.com/libreria-dev/libreria-backend/pkg/types"
)

type addressRequest struct {
	Label     string                `json:"label" validate:"required"`
	Details   types.ShippingAddress `json:"details"`
	IsDefault bool                  `json:"is_default"`
}

type addressResponse struct {
	ID        uuid.UUID             `json:"id"`
	Label     string                `json:"label"`
	Details   types.ShippingAddress `json:"details"`
	IsDefault bool                  `json:"is_default"`
	CreatedAt time.Time             `json:"created_at"`
}

func newAddressResponse(a *models.Address) addressResponse {
	return addressResponse{
		ID:        a.ID,
		Label:     a.Label,
		Details:   a.Details,
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt,
	}
}

func ListAddresses(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
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

		out := make([]addressResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newAddressResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func CreateAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Create(r.Context(), userID, addresssvc.CreateAddressDTO{
			Label:     body.Label,
			Details:   body.Details,
			IsDefault: body.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAddressResponse(row))
	}
}

func UpdateAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Update(r.Context(), userID, addressID, addresssvc.CreateAddressDTO{
			Label:     body.Label,
			Details:   body.Details,
			IsDefault: body.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAddressResponse(row))
	}
}

func DeleteAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func SetDefaultAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.SetDefault(r.Context(), userID, addressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAddressResponse(row))
	}
}
