package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// MembershipDTO is the transport shape for a raw membership record.
type MembershipDTO struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	UserID         uuid.UUID      `json:"user_id"`
	Role           enums.UserRole `json:"role"`
	BranchIDs      []uuid.UUID    `json:"branch_ids"`
	InvitedByID    *uuid.UUID     `json:"invited_by_id,omitempty"`
	JoinedAt       time.Time      `json:"joined_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// MembershipWithOrg includes basic organization metadata + membership info.
type MembershipWithOrg struct {
	MembershipID   uuid.UUID      `json:"membership_id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	UserID         uuid.UUID      `json:"user_id"`
	OrgName        string         `json:"org_name"`
	OrgLogoURL     *string        `json:"org_logo_url,omitempty"`
	Role           enums.UserRole `json:"role"`
	BranchIDs      []uuid.UUID    `json:"branch_ids"`
	JoinedAt       time.Time      `json:"joined_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ToDTO converts a model to the external DTO.
func ToDTO(m *models.Membership) *MembershipDTO {
	if m == nil {
		return nil
	}

	return &MembershipDTO{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		Role:           m.Role,
		BranchIDs:      append([]uuid.UUID(nil), []uuid.UUID(m.BranchIDs)...),
		InvitedByID:    copyUUIDPointer(m.InvitedByID),
		JoinedAt:       m.JoinedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func copyUUIDPointer(src *uuid.UUID) *uuid.UUID {
	if src == nil {
		return nil
	}
	dst := *src
	return &dst
}
