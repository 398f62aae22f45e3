package controllers

import (
	"net/http"

	"github.com/pharmhq/pharmacy-backend/api/responses"
	"github.com/pharmhq/pharmacy-backend/api/validators"
	"github.com/pharmhq/pharmacy-backend/internal/orgs"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

// OrgProfile returns the active organization's settings.
func OrgProfile(svc orgs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "organization service unavailable"))
			return
		}

		orgID, err := contextOrgID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Get(r.Context(), orgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

type orgUpdateRequest struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	LogoURL  *string  `json:"logo_url,omitempty"`
	Currency *string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	TaxRate  *float64 `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// OrgUpdate adjusts the mutable organization settings.
func OrgUpdate(svc orgs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "organization service unavailable"))
			return
		}

		orgID, err := contextOrgID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orgUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Update(r.Context(), orgID, orgs.UpdateInput{
			Name:     body.Name,
			LogoURL:  body.LogoURL,
			Currency: body.Currency,
			TaxRate:  body.TaxRate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}
