package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalamart/storefront-api/api/middleware"
	"github.com/kalamart/storefront-api/api/responses"
	"github.com/kalamart/storefront-api/api/validators"
	cartsvc "github.com/kalamart/storefront-api/internal/cart"
	"github.com/kalamart/storefront-api/pkg/commerce"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

type cartResponse struct {
	Items    []commerce.CartItem `json:"items"`
	Subtotal float64             `json:"subtotal"`
}

func newCartResponse(snapshot *cartsvc.Snapshot) cartResponse {
	resp := cartResponse{Items: []commerce.CartItem{}}
	if snapshot == nil {
		return resp
	}
	if snapshot.Items != nil {
		resp.Items = snapshot.Items
	}
	resp.Subtotal = snapshot.Subtotal.InexactFloat64()
	return resp
}

// CartFetch returns the live cart. Failures upstream degrade to an empty cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		snapshot, err := svc.Fetch(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(snapshot))
	}
}

// CartAdd adds a product to the cart and returns the refreshed cart.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity := body.Quantity
		if quantity == 0 {
			quantity = 1
		}

		snapshot, err := svc.Add(r.Context(), userID, body.ProductID, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(snapshot))
	}
}

// CartRemove drops a product line entirely.
func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(svc, logg, func(ctx context.Context, svc cartsvc.Service, userID, productID string) (*cartsvc.Snapshot, error) {
		return svc.Remove(ctx, userID, productID)
	})
}

// CartIncrement bumps a line's quantity by one.
func CartIncrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(svc, logg, func(ctx context.Context, svc cartsvc.Service, userID, productID string) (*cartsvc.Snapshot, error) {
		return svc.Increment(ctx, userID, productID)
	})
}

// CartDecrement lowers a line's quantity by one, removing it at zero.
func CartDecrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(svc, logg, func(ctx context.Context, svc cartsvc.Service, userID, productID string) (*cartsvc.Snapshot, error) {
		return svc.Decrement(ctx, userID, productID)
	})
}

func cartMutation(svc cartsvc.Service, logg *logger.Logger, op func(context.Context, cartsvc.Service, string, string) (*cartsvc.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		productID := chi.URLParam(r, "productID")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id required"))
			return
		}

		snapshot, err := op(r.Context(), svc, userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(snapshot))
	}
}

func requireUser(ctx context.Context) (string, error) {
	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}
