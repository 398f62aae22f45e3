package memberships

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	dbtypes "github.com/pharmhq/pharmacy-backend/pkg/db/types"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// Repository exposes membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListUserOrganizations returns the organizations a user belongs to along with membership metadata.
func (r *Repository) ListUserOrganizations(ctx context.Context, userID uuid.UUID) ([]MembershipWithOrg, error) {
	var rows []membershipWithOrgRow

	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Select("memberships.*, organizations.name AS org_name, organizations.logo_url AS org_logo_url").
		Joins("JOIN organizations ON organizations.id = memberships.organization_id").
		Where("memberships.user_id = ?", userID).
		Order("organizations.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return membershipRowsToDTO(rows), nil
}

// GetMembership retrieves a membership by user and organization.
func (r *Repository) GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// GetMembershipWithOrg returns membership details joined with organization metadata.
func (r *Repository) GetMembershipWithOrg(ctx context.Context, userID, orgID uuid.UUID) (*MembershipWithOrg, error) {
	var row membershipWithOrgRow
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Select("memberships.*, organizations.name AS org_name, organizations.logo_url AS org_logo_url").
		Joins("JOIN organizations ON organizations.id = memberships.organization_id").
		Where("memberships.user_id = ? AND memberships.organization_id = ?", userID, orgID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	dto := membershipWithOrgFromRow(row)
	return &dto, nil
}

// CreateMembership persists a new membership record.
func (r *Repository) CreateMembership(ctx context.Context, params CreateMembershipParams) (*models.Membership, error) {
	membership, err := newMembershipModel(params)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// UpsertMembershipWithTx inserts a membership or, when the user already
// belongs to the organization, updates the role and branch scope in place.
// Re-accepted invitations must never produce duplicate rows.
func (r *Repository) UpsertMembershipWithTx(tx *gorm.DB, params CreateMembershipParams) (*models.Membership, error) {
	membership, err := newMembershipModel(params)
	if err != nil {
		return nil, err
	}
	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "organization_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"role":       membership.Role,
			"branch_ids": membership.BranchIDs,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(membership).Error
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// UserHasRole reports whether the user holds one of the provided roles for the organization.
func (r *Repository) UserHasRole(ctx context.Context, userID, orgID uuid.UUID, roles ...enums.UserRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("user_id = ? AND organization_id = ? AND role IN ?", userID, orgID, roles).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountForUser returns the number of organizations the user belongs to.
func (r *Repository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// CreateMembershipParams captures the inputs for a new membership row.
type CreateMembershipParams struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           enums.UserRole
	BranchIDs      []uuid.UUID
	InvitedByID    *uuid.UUID
	JoinedAt       time.Time
}

func newMembershipModel(params CreateMembershipParams) (*models.Membership, error) {
	if !params.Role.IsValid() {
		return nil, fmt.Errorf("invalid user role %q", params.Role)
	}
	joined := params.JoinedAt
	if joined.IsZero() {
		joined = time.Now().UTC()
	}
	return &models.Membership{
		UserID:         params.UserID,
		OrganizationID: params.OrganizationID,
		Role:           params.Role,
		BranchIDs:      dbtypes.UUIDArray(params.BranchIDs),
		InvitedByID:    params.InvitedByID,
		JoinedAt:       joined,
	}, nil
}
