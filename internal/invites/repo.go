package invites

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// Repository exposes invite persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new invite row.
func (r *Repository) Create(ctx context.Context, invite *models.Invite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

// FindByToken resolves an invite through the unique token index.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.Invite, error) {
	var invite models.Invite
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Preload("InvitedBy").
		Where("invite_token = ?", token).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindByID loads an invite scoped to its organization.
func (r *Repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*models.Invite, error) {
	var invite models.Invite
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// ListByOrg returns the organization's invites, newest first.
func (r *Repository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Invite, error) {
	var rows []models.Invite
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListPendingByOrg returns the organization's pending invites, newest first.
func (r *Repository) ListPendingByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Invite, error) {
	var rows []models.Invite
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", orgID, enums.InviteStatusPending).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// HasPendingForEmail reports whether the email already has a pending invite
// in the organization.
func (r *Repository) HasPendingForEmail(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("organization_id = ? AND email = ? AND status = ?", orgID, email, enums.InviteStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AcceptWithTx flips a pending invite to accepted. The status guard makes the
// write idempotent: a second acceptance affects zero rows.
func (r *Repository) AcceptWithTx(tx *gorm.DB, inviteID, userID uuid.UUID, now time.Time) (int64, error) {
	result := tx.
		Model(&models.Invite{}).
		Where("id = ? AND status = ?", inviteID, enums.InviteStatusPending).
		UpdateColumns(map[string]any{
			"status":         enums.InviteStatusAccepted,
			"accepted_at":    now,
			"accepted_by_id": userID,
			"updated_at":     now,
		})
	return result.RowsAffected, result.Error
}

// ExpireByID marks a pending invite expired. Non-pending invites are left
// untouched and reported as not updated.
func (r *Repository) ExpireByID(ctx context.Context, orgID, inviteID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ? AND organization_id = ? AND status = ?", inviteID, orgID, enums.InviteStatusPending).
		UpdateColumns(map[string]any{
			"status":     enums.InviteStatusExpired,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ExpireDueForOrg batch-expires the organization's pending invites whose
// deadline has passed, returning the number of rows transitioned.
func (r *Repository) ExpireDueForOrg(ctx context.Context, orgID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("organization_id = ? AND status = ? AND expires_at < ?", orgID, enums.InviteStatusPending, now).
		UpdateColumns(map[string]any{
			"status":     enums.InviteStatusExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
