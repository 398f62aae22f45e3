package staff

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	dbtypes "github.com/pharmhq/pharmacy-backend/pkg/db/types"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
	"github.com/pharmhq/pharmacy-backend/pkg/pagination"
)

// Repository exposes organization staff profile persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertProfileParams captures the inputs for a staff directory row.
type UpsertProfileParams struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Email          string
	DisplayName    string
	Role           enums.UserRole
	BranchIDs      []uuid.UUID
	JoinedAt       time.Time
}

// UpsertProfileWithTx inserts the staff profile or refreshes the existing row
// for the same user in the same organization.
func (r *Repository) UpsertProfileWithTx(tx *gorm.DB, params UpsertProfileParams) error {
	joined := params.JoinedAt
	if joined.IsZero() {
		joined = time.Now().UTC()
	}
	profile := &models.OrgUser{
		OrganizationID: params.OrganizationID,
		UserID:         params.UserID,
		Email:          params.Email,
		DisplayName:    params.DisplayName,
		Role:           params.Role,
		Status:         enums.StaffStatusActive,
		BranchIDs:      dbtypes.UUIDArray(params.BranchIDs),
		JoinedAt:       joined,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"email":        profile.Email,
			"display_name": profile.DisplayName,
			"role":         profile.Role,
			"status":       enums.StaffStatusActive,
			"branch_ids":   profile.BranchIDs,
			"updated_at":   time.Now().UTC(),
		}),
	}).Create(profile).Error
}

// GetProfile loads a staff profile by organization and user.
func (r *Repository) GetProfile(ctx context.Context, orgID, userID uuid.UUID) (*models.OrgUser, error) {
	var profile models.OrgUser
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type listProfilesParams struct {
	OrgID  uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

// List returns a page of the organization's staff profiles ordered by
// creation time, plus the cursor for the next page when one exists.
func (r *Repository) List(ctx context.Context, params listProfilesParams) ([]models.OrgUser, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.OrgUser{}).
		Where("organization_id = ?", params.OrgID).
		Order("created_at, id").
		Limit(params.Limit)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.OrgUser
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	limit := params.Limit - 1
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

// UpdateRoleAndBranches changes a staff member's role and branch scope in
// both the directory profile and the membership row.
func (r *Repository) UpdateRoleAndBranches(tx *gorm.DB, orgID, userID uuid.UUID, role enums.UserRole, branchIDs []uuid.UUID) error {
	now := time.Now().UTC()
	err := tx.
		Model(&models.OrgUser{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		UpdateColumns(map[string]any{
			"role":       role,
			"branch_ids": dbtypes.UUIDArray(branchIDs),
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}
	return tx.
		Model(&models.Membership{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		UpdateColumns(map[string]any{
			"role":       role,
			"branch_ids": dbtypes.UUIDArray(branchIDs),
			"updated_at": now,
		}).Error
}

// SetStatus updates the staff profile's status.
func (r *Repository) SetStatus(ctx context.Context, orgID, userID uuid.UUID, status enums.StaffStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrgUser{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		UpdateColumns(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

// RemoveWithTx deletes the staff profile and the matching membership.
func (r *Repository) RemoveWithTx(tx *gorm.DB, orgID, userID uuid.UUID) (bool, error) {
	result := tx.
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Delete(&models.OrgUser{})
	if result.Error != nil {
		return false, result.Error
	}
	if err := tx.
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Delete(&models.Membership{}).Error; err != nil {
		return false, err
	}
	return result.RowsAffected > 0, nil
}
