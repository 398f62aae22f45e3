package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/pharmhq/pharmacy-backend/pkg/db/types"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// OrgUser is the organization-scoped staff profile: the row the staff
// directory renders. It duplicates display fields from users so directory
// listings never join across tenants.
type OrgUser struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID         `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_org_users_org_user"`
	UserID         uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_org_users_org_user"`
	Email          string            `gorm:"column:email;not null"`
	DisplayName    string            `gorm:"column:display_name;not null"`
	Role           enums.UserRole    `gorm:"column:role;type:text;not null"`
	Status         enums.StaffStatus `gorm:"column:status;type:text;not null;default:active"`
	BranchIDs      dbtypes.UUIDArray `gorm:"column:branch_ids;type:uuid[]"`
	JoinedAt       time.Time         `gorm:"column:joined_at;not null"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
