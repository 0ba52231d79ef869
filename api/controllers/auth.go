package controllers

import (
	"net/http"

	"github.com/libreria-dev/libreria-backend/api/middleware"
	"github.com/libreria-dev/libreria-backend/api/responses"
	"github.com/libreria-dev/libreria-backend/api/validators"
	"github.com/libreria-dev/libreria-backend/internal/auth"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
)

// AuthLogin wires the customer login endpoint into the HTTP layer. When
// the request carries an anonymous cart session, it is handed to the
// service so the visitor's cart follows the customer in.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.CartSessionToken == nil {
			if token := middleware.CartSessionFromContext(r.Context()); token != "" {
				body.CartSessionToken = &token
			}
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

func AdminAuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdminLogin(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}
