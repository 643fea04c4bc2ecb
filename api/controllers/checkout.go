package controllers

import (
	"net/http"

	"github.com/kalamart/storefront-api/api/middleware"
	"github.com/kalamart/storefront-api/api/responses"
	"github.com/kalamart/storefront-api/api/validators"
	"github.com/kalamart/storefront-api/internal/checkout"
	"github.com/kalamart/storefront-api/internal/payment"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
)

type validateFieldRequest struct {
	Field string                `json:"field,omitempty"`
	Value string                `json:"value,omitempty"`
	Form  *checkout.BillingForm `json:"form,omitempty"`
}

type validateFieldResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// CheckoutValidate checks a single billing field or the whole form without
// touching any upstream service. The storefront calls it as the shopper types.
func CheckoutValidate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body validateFieldRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.Field != "" {
			errs := map[string]string{}
			if msg := checkout.ValidateField(checkout.Field(body.Field), body.Value); msg != "" {
				errs[body.Field] = msg
			}
			responses.WriteSuccess(w, validateFieldResponse{Valid: len(errs) == 0, Errors: errs})
			return
		}

		if body.Form == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "field or form required"))
			return
		}

		fieldErrs := body.Form.Validate()
		errs := make(map[string]string, len(fieldErrs))
		for field, msg := range fieldErrs {
			errs[string(field)] = msg
		}
		responses.WriteSuccess(w, validateFieldResponse{Valid: len(errs) == 0, Errors: errs})
	}
}

type quoteRequest struct {
	SessionID      string `json:"session_id,omitempty"`
	ShippingMethod string `json:"shipping_method,omitempty"`
}

type quoteResponse struct {
	Subtotal     float64 `json:"subtotal"`
	DiscountRate float64 `json:"discount_rate"`
	Discount     float64 `json:"discount"`
	ShippingCost float64 `json:"shipping_cost"`
	FinalTotal   float64 `json:"final_total"`
	AmountMinor  int64   `json:"amount_minor"`
}

func newQuoteResponse(quote *checkout.Quote) quoteResponse {
	if quote == nil {
		return quoteResponse{}
	}
	return quoteResponse{
		Subtotal:     quote.Subtotal.InexactFloat64(),
		DiscountRate: quote.DiscountRate.InexactFloat64(),
		Discount:     quote.Discount.InexactFloat64(),
		ShippingCost: quote.ShippingCost.InexactFloat64(),
		FinalTotal:   quote.FinalTotal.InexactFloat64(),
		AmountMinor:  checkout.AmountMinorUnits(quote.FinalTotal),
	}
}

// CheckoutQuote recomputes the order totals from live upstream state.
func CheckoutQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body quoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), checkout.QuoteInput{
			UserID:         userID,
			SessionID:      body.SessionID,
			ShippingMethod: checkout.ShippingMethod(body.ShippingMethod),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newQuoteResponse(quote))
	}
}

type createIntentRequest struct {
	SessionID      string               `json:"session_id,omitempty"`
	ShippingMethod string               `json:"shipping_method,omitempty"`
	Form           checkout.BillingForm `json:"form"`
}

// CheckoutIntent creates (or refreshes) the payment intent for the current
// quote and returns the client secret the storefront confirms against.
func CheckoutIntent(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body createIntentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		attempt, err := svc.CreateIntent(r.Context(), payment.CreateIntentInput{
			UserID:         userID,
			SessionID:      body.SessionID,
			Form:           body.Form,
			ShippingMethod: checkout.ShippingMethod(body.ShippingMethod),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, attempt)
	}
}

type submitRequest struct {
	SessionID              string               `json:"session_id,omitempty"`
	ShippingMethod         string               `json:"shipping_method,omitempty"`
	Form                   checkout.BillingForm `json:"form"`
	PaymentElementComplete bool                 `json:"payment_element_complete"`
}

type submitResponse struct {
	OrderRef     string `json:"order_ref"`
	ClientSecret string `json:"client_secret"`
	AmountMinor  int64  `json:"amount_minor"`
	ReturnURL    string `json:"return_url"`
}

// CheckoutSubmit saves the draft order and hands back what the storefront
// needs to confirm the payment with the provider.
func CheckoutSubmit(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body submitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), payment.SubmitInput{
			UserID:                 userID,
			SessionID:              body.SessionID,
			Form:                   body.Form,
			ShippingMethod:         checkout.ShippingMethod(body.ShippingMethod),
			PaymentElementComplete: body.PaymentElementComplete,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, submitResponse{
			OrderRef:     result.OrderRef,
			ClientSecret: result.ClientSecret,
			AmountMinor:  result.AmountMinor,
			ReturnURL:    result.ReturnURL,
		})
	}
}

// CheckoutAttempt reports the shopper's in-flight payment attempt.
func CheckoutAttempt(svc payment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		attempt, err := svc.Attempt(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, attempt)
	}
}
