package branches

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
)

// BranchDTO is the API-facing shape of a branch.
type BranchDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	License   string    `json:"license"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput carries the fields needed to open a new branch.
type CreateInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	License string `json:"license"`
}

// UpdateInput carries the mutable branch fields. Nil fields are left
// untouched.
type UpdateInput struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	License *string `json:"license,omitempty"`
}

// ToDTO maps the persistence model to its API shape.
func ToDTO(branch *models.Branch) *BranchDTO {
	if branch == nil {
		return nil
	}
	return &BranchDTO{
		ID:        branch.ID,
		Name:      branch.Name,
		Address:   branch.Address,
		Phone:     branch.Phone,
		License:   branch.License,
		CreatedAt: branch.CreatedAt,
		UpdatedAt: branch.UpdatedAt,
	}
}

func toDTOs(branches []models.Branch) []BranchDTO {
	out := make([]BranchDTO, 0, len(branches))
	for i := range branches {
		out = append(out, *ToDTO(&branches[i]))
	}
	return out
}
