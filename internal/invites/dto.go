package invites

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// InviteDTO is the transport shape for an invitation record. The raw token is
// never part of listings; it travels only in the creation response and the
// emailed link.
type InviteDTO struct {
	ID             uuid.UUID          `json:"id"`
	OrganizationID uuid.UUID          `json:"organization_id"`
	Email          string             `json:"email"`
	Role           enums.UserRole     `json:"role"`
	BranchIDs      []uuid.UUID        `json:"branch_ids"`
	Status         enums.InviteStatus `json:"status"`
	InvitedByID    uuid.UUID          `json:"invited_by_id"`
	ExpiresAt      time.Time          `json:"expires_at"`
	AcceptedAt     *time.Time         `json:"accepted_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// CreateInviteInput is the payload for a new invitation.
type CreateInviteInput struct {
	Email     string
	Role      enums.UserRole
	BranchIDs []uuid.UUID
}

// CreateInviteResult returns the persisted invite plus its one-time token.
type CreateInviteResult struct {
	Invite InviteDTO `json:"invite"`
	Token  string    `json:"token"`
}

// LookupResult is the public, pre-authentication preview of an invitation.
type LookupResult struct {
	OrganizationName string         `json:"organization_name"`
	InviterName      string         `json:"inviter_name"`
	Email            string         `json:"email"`
	Role             enums.UserRole `json:"role"`
	ExpiresAt        time.Time      `json:"expires_at"`
	Valid            bool           `json:"valid"`
	Reason           string         `json:"reason,omitempty"`
}

// AcceptResult describes the membership granted by a successful acceptance.
type AcceptResult struct {
	OrganizationID   uuid.UUID      `json:"organization_id"`
	OrganizationName string         `json:"organization_name"`
	Role             enums.UserRole `json:"role"`
	BranchIDs        []uuid.UUID    `json:"branch_ids"`
}

// ToDTO converts a model to the external DTO.
func ToDTO(m *models.Invite) *InviteDTO {
	if m == nil {
		return nil
	}
	return &InviteDTO{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		Email:          m.Email,
		Role:           m.Role,
		BranchIDs:      append([]uuid.UUID(nil), []uuid.UUID(m.BranchIDs)...),
		Status:         m.Status,
		InvitedByID:    m.InvitedByID,
		ExpiresAt:      m.ExpiresAt,
		AcceptedAt:     m.AcceptedAt,
		CreatedAt:      m.CreatedAt,
	}
}

func toDTOs(rows []models.Invite) []InviteDTO {
	out := make([]InviteDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *ToDTO(&rows[i]))
	}
	return out
}
