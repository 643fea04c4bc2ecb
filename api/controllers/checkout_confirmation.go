package controllers

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/kalamart/storefront-api/api/responses"
	"github.com/kalamart/storefront-api/internal/payment"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
)

// CheckoutConfirmation reconciles the provider redirect with the draft order.
// It is the success-page endpoint: only a succeeded redirect finalizes the
// order, anything else reopens the attempt.
func CheckoutConfirmation(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		query := r.URL.Query()
		input := payment.ReconcileInput{
			UserID:         userID,
			PaymentIntent:  strings.TrimSpace(query.Get("payment_intent")),
			RedirectStatus: strings.TrimSpace(query.Get("redirect_status")),
		}

		if raw := strings.TrimSpace(query.Get("amount")); raw != "" {
			amount, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid amount"))
				return
			}
			input.AmountMinor = amount
		}

		if raw := strings.TrimSpace(query.Get("user_info_id")); raw != "" {
			decoded, err := base64.StdEncoding.DecodeString(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order reference"))
				return
			}
			input.OrderRef = string(decoded)
		}

		details, err := svc.Reconcile(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, details)
	}
}
