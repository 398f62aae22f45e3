package staff

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// ProfileDTO is the transport shape for a staff directory row.
type ProfileDTO struct {
	ID             uuid.UUID         `json:"id"`
	OrganizationID uuid.UUID         `json:"organization_id"`
	UserID         uuid.UUID         `json:"user_id"`
	Email          string            `json:"email"`
	DisplayName    string            `json:"display_name"`
	Role           enums.UserRole    `json:"role"`
	Status         enums.StaffStatus `json:"status"`
	BranchIDs      []uuid.UUID       `json:"branch_ids"`
	JoinedAt       time.Time         `json:"joined_at"`
	CreatedAt      time.Time         `json:"created_at"`
}

// UpdateInput carries the mutable staff profile fields; nil means unchanged.
type UpdateInput struct {
	Role      *enums.UserRole
	BranchIDs []uuid.UUID
	Status    *enums.StaffStatus
}

// ListResult wraps a staff page and the cursor for the next one.
type ListResult struct {
	Items  []ProfileDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

// ToDTO converts a model to the external DTO.
func ToDTO(m *models.OrgUser) *ProfileDTO {
	if m == nil {
		return nil
	}
	return &ProfileDTO{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		Email:          m.Email,
		DisplayName:    m.DisplayName,
		Role:           m.Role,
		Status:         m.Status,
		BranchIDs:      append([]uuid.UUID(nil), []uuid.UUID(m.BranchIDs)...),
		JoinedAt:       m.JoinedAt,
		CreatedAt:      m.CreatedAt,
	}
}
