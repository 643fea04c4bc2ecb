package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalamart/storefront-api/api/responses"
	"github.com/kalamart/storefront-api/api/validators"
	"github.com/kalamart/storefront-api/internal/tempsession"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
)

type buyNowRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

// BuyNowCreate opens a single-product checkout session, replacing any
// session the shopper still has open.
func BuyNowCreate(svc tempsession.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "buy-now service unavailable"))
			return
		}

		var body buyNowRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity := body.Quantity
		if quantity == 0 {
			quantity = 1
		}

		session, err := svc.BuyNow(r.Context(), userID, body.ProductID, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// BuyNowFetch loads a checkout session by id.
func BuyNowFetch(svc tempsession.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requireUser(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "buy-now service unavailable"))
			return
		}

		sessionID := chi.URLParam(r, "sessionID")
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id required"))
			return
		}

		session, err := svc.Fetch(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// BuyNowIncrement bumps the session quantity by one.
func BuyNowIncrement(svc tempsession.Service, logg *logger.Logger) http.HandlerFunc {
	return buyNowAdjust(svc, logg, true)
}

// BuyNowDecrement lowers the session quantity, flooring at one.
func BuyNowDecrement(svc tempsession.Service, logg *logger.Logger) http.HandlerFunc {
	return buyNowAdjust(svc, logg, false)
}

func buyNowAdjust(svc tempsession.Service, logg *logger.Logger, increment bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requireUser(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "buy-now service unavailable"))
			return
		}

		sessionID := chi.URLParam(r, "sessionID")
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id required"))
			return
		}

		op := svc.Decrement
		if increment {
			op = svc.Increment
		}
		session, err := op(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// BuyNowDeactivate closes every open session for the shopper. The storefront
// calls this when navigation leaves the buy-now flow.
func BuyNowDeactivate(svc tempsession.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "buy-now service unavailable"))
			return
		}

		if err := svc.DeactivateAll(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// BuyNowActive reports the shopper's open session id, if any.
func BuyNowActive(svc tempsession.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "buy-now service unavailable"))
			return
		}

		sessionID, err := svc.ActiveSessionID(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"session_id": sessionID})
	}
}
