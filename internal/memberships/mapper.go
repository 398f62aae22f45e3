package memberships

import (
	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
)

type membershipWithOrgRow struct {
	models.Membership
	OrgName    string  `gorm:"column:org_name"`
	OrgLogoURL *string `gorm:"column:org_logo_url"`
}

func membershipWithOrgFromRow(row membershipWithOrgRow) MembershipWithOrg {
	return MembershipWithOrg{
		MembershipID:   row.ID,
		OrganizationID: row.OrganizationID,
		UserID:         row.UserID,
		OrgName:        row.OrgName,
		OrgLogoURL:     row.OrgLogoURL,
		Role:           row.Role,
		BranchIDs:      append([]uuid.UUID(nil), []uuid.UUID(row.BranchIDs)...),
		JoinedAt:       row.JoinedAt,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func membershipRowsToDTO(rows []membershipWithOrgRow) []MembershipWithOrg {
	out := make([]MembershipWithOrg, 0, len(rows))
	for _, row := range rows {
		out = append(out, membershipWithOrgFromRow(row))
	}
	return out
}
