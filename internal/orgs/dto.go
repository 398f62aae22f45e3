package orgs

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
)

// OrganizationDTO is the API-facing shape of an organization.
type OrganizationDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	LogoURL   *string   `json:"logo_url,omitempty"`
	Currency  string    `json:"currency"`
	TaxRate   float64   `json:"tax_rate"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateInput carries the mutable organization settings. Nil fields are
// left untouched.
type UpdateInput struct {
	Name     *string  `json:"name,omitempty"`
	LogoURL  *string  `json:"logo_url,omitempty"`
	Currency *string  `json:"currency,omitempty"`
	TaxRate  *float64 `json:"tax_rate,omitempty"`
}

// ToDTO maps the persistence model to its API shape.
func ToDTO(org *models.Organization) *OrganizationDTO {
	if org == nil {
		return nil
	}
	return &OrganizationDTO{
		ID:        org.ID,
		Name:      org.Name,
		LogoURL:   org.LogoURL,
		Currency:  org.Currency,
		TaxRate:   org.TaxRate,
		OwnerID:   org.OwnerID,
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
}
