package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/libreria-dev/libreria-backend/api/middleware"
	cartsvc "github.com/libreria-dev/libreria-backend/internal/cart"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
)

// tokenHeader carries the freshly minted access token on auth responses.
const tokenHeader = "X-Libreria-Token"

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// cartOwner resolves the cart identity for the request: the logged-in
// customer when present, otherwise the anonymous cart session token.
func cartOwner(r *http.Request) (cartsvc.Owner, error) {
	if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return cartsvc.Owner{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
		}
		return cartsvc.Owner{CustomerID: &id}, nil
	}
	if token := middleware.CartSessionFromContext(r.Context()); token != "" {
		return cartsvc.Owner{SessionToken: &token}, nil
	}
	return cartsvc.Owner{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session missing")
}

func pathID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}

func uuidFromString(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return id, nil
}
