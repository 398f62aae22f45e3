package branches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
)

// Repository exposes branch persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a branches repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new branch.
func (r *Repository) Create(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

// CreateWithTx inserts a branch inside the caller's transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, branch *models.Branch) error {
	return tx.Create(branch).Error
}

// FindInOrg loads a branch, scoped to the organization so one tenant can
// never address another tenant's branch by ID.
func (r *Repository) FindInOrg(ctx context.Context, orgID, branchID uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, branchID).
		First(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

// ListByOrg returns every branch of the organization, oldest first.
func (r *Repository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Branch, error) {
	var branches []models.Branch
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// CountByOrg counts the branches belonging to the organization.
func (r *Repository) CountByOrg(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Branch{}).
		Where("organization_id = ?", orgID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsInOrg reports whether every ID in the slice names a branch of the
// organization.
func (r *Repository) ExistsInOrg(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Branch{}).
		Where("organization_id = ? AND id IN ?", orgID, ids).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count == int64(len(ids)), nil
}

// Update applies the column map to a branch within the organization and
// reports whether a row matched.
func (r *Repository) Update(ctx context.Context, orgID, branchID uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Branch{}).
		Where("organization_id = ? AND id = ?", orgID, branchID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a branch within the organization and reports whether a
// row matched.
func (r *Repository) Delete(ctx context.Context, orgID, branchID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, branchID).
		Delete(&models.Branch{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
