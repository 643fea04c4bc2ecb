package controllers

import (
	"net/http"

	"github.com/kalamart/storefront-api/api/responses"
	"github.com/kalamart/storefront-api/api/validators"
	contactsvc "github.com/kalamart/storefront-api/internal/contact"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
)

// ContactSubmit validates and forwards a contact-form submission.
func ContactSubmit(svc contactsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contact service unavailable"))
			return
		}

		var body contactsvc.Submission
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Submit(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "received"})
	}
}
