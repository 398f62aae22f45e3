package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/pharmhq/pharmacy-backend/pkg/db/types"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// Membership links a user to an organization with a role. A user holds at
// most one membership per organization; re-inviting an existing member
// updates the row in place instead of inserting a duplicate.
type Membership struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_memberships_user_org"`
	OrganizationID uuid.UUID         `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_memberships_user_org"`
	Role           enums.UserRole    `gorm:"column:role;type:text;not null"`
	BranchIDs      dbtypes.UUIDArray `gorm:"column:branch_ids;type:uuid[]"`
	InvitedByID    *uuid.UUID        `gorm:"column:invited_by_id;type:uuid"`
	JoinedAt       time.Time         `gorm:"column:joined_at;not null"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Organization *Organization `gorm:"foreignKey:OrganizationID"`
}
