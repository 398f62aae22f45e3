package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/pharmhq/pharmacy-backend/pkg/db/types"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// User is the global (cross-organization) identity record.
//
// The Legacy* columns carry the flat single-organization shape from before
// memberships existed. They are read once by the membership resolver, which
// synthesizes a membership from them when a user has no membership rows.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	DisplayName  string     `gorm:"column:display_name;not null"`
	Phone        *string    `gorm:"column:phone"`
	PhotoURL     *string    `gorm:"column:photo_url"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`

	// LastActiveOrgID remembers the organization selected in the previous
	// session; the resolver prefers it when it is still a membership.
	LastActiveOrgID *uuid.UUID `gorm:"column:last_active_org_id;type:uuid"`

	LegacyOrganizationID   *uuid.UUID        `gorm:"column:legacy_organization_id;type:uuid"`
	LegacyRole             *enums.UserRole   `gorm:"column:legacy_role;type:text"`
	LegacyAssignedBranches dbtypes.UUIDArray `gorm:"column:legacy_assigned_branches;type:uuid[]"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
