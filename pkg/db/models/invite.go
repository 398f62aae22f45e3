package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/pharmhq/pharmacy-backend/pkg/db/types"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// Invite is a pending offer of membership in an organization, addressed to an
// email. The token is the only public handle: lookup and acceptance both go
// through the unique invite_token index, never through the invite id.
type Invite struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID          `gorm:"column:organization_id;type:uuid;not null;index"`
	Email          string             `gorm:"column:email;not null;index"`
	Role           enums.UserRole     `gorm:"column:role;type:text;not null"`
	BranchIDs      dbtypes.UUIDArray  `gorm:"column:branch_ids;type:uuid[]"`
	InviteToken    string             `gorm:"column:invite_token;not null;uniqueIndex"`
	Status         enums.InviteStatus `gorm:"column:status;type:text;not null;default:pending;index"`
	InvitedByID    uuid.UUID          `gorm:"column:invited_by_id;type:uuid;not null"`
	ExpiresAt      time.Time          `gorm:"column:expires_at;not null"`
	AcceptedAt     *time.Time         `gorm:"column:accepted_at"`
	AcceptedByID   *uuid.UUID         `gorm:"column:accepted_by_id;type:uuid"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Organization *Organization `gorm:"foreignKey:OrganizationID"`
	InvitedBy    *User         `gorm:"foreignKey:InvitedByID"`
}
