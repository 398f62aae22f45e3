package invites

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	users := `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		phone TEXT,
		photo_url TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		last_login_at DATETIME,
		last_active_org_id TEXT,
		legacy_organization_id TEXT,
		legacy_role TEXT,
		legacy_assigned_branches TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`
	organizations := `CREATE TABLE organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		logo_url TEXT,
		currency TEXT NOT NULL DEFAULT 'USD',
		tax_rate REAL NOT NULL DEFAULT 0,
		owner_id TEXT NOT NULL,
		last_active_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`
	invites := `CREATE TABLE invites (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		branch_ids TEXT,
		invite_token TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'pending',
		invited_by_id TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		accepted_at DATETIME,
		accepted_by_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(organizations).Error)
	require.NoError(t, db.Exec(invites).Error)
	return db
}

func seedInviteRow(t *testing.T, db *gorm.DB, orgID uuid.UUID, status enums.InviteStatus, expiresAt time.Time) *models.Invite {
	t.Helper()
	inviter := &models.User{
		ID:          uuid.New(),
		Email:       uuid.NewString() + "@pharmhq.test",
		DisplayName: "Seed Inviter",
	}
	require.NoError(t, db.Create(inviter).Error)

	token, err := GenerateToken()
	require.NoError(t, err)

	invite := &models.Invite{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Email:          uuid.NewString() + "@pharmhq.test",
		Role:           enums.UserRoleCashier,
		InviteToken:    token,
		Status:         status,
		InvitedByID:    inviter.ID,
		ExpiresAt:      expiresAt,
	}
	require.NoError(t, db.Create(invite).Error)
	return invite
}

func TestRepositoryFindByToken(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	org := &models.Organization{ID: uuid.New(), Name: "Riverside Pharmacy", Currency: "USD", OwnerID: uuid.New()}
	require.NoError(t, db.Create(org).Error)

	seeded := seedInviteRow(t, db, org.ID, enums.InviteStatusPending, time.Now().Add(24*time.Hour))

	found, err := repo.FindByToken(ctx, seeded.InviteToken)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	require.NotNil(t, found.Organization)
	assert.Equal(t, "Riverside Pharmacy", found.Organization.Name)
	require.NotNil(t, found.InvitedBy)
	assert.Equal(t, "Seed Inviter", found.InvitedBy.DisplayName)

	_, err = repo.FindByToken(ctx, "deadbeef")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryAcceptWithTxIsIdempotent(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewRepository(db)

	orgID := uuid.New()
	invite := seedInviteRow(t, db, orgID, enums.InviteStatusPending, time.Now().Add(24*time.Hour))
	userID := uuid.New()
	now := time.Now().UTC()

	affected, err := repo.AcceptWithTx(db, invite.ID, userID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var reloaded models.Invite
	require.NoError(t, db.First(&reloaded, "id = ?", invite.ID).Error)
	assert.Equal(t, enums.InviteStatusAccepted, reloaded.Status)
	require.NotNil(t, reloaded.AcceptedByID)
	assert.Equal(t, userID, *reloaded.AcceptedByID)

	// The pending-status guard makes a second acceptance a no-op.
	affected, err = repo.AcceptWithTx(db, invite.ID, uuid.New(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestRepositoryExpireDueForOrg(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	now := time.Now().UTC()

	due := seedInviteRow(t, db, orgID, enums.InviteStatusPending, now.Add(-time.Hour))
	fresh := seedInviteRow(t, db, orgID, enums.InviteStatusPending, now.Add(24*time.Hour))
	accepted := seedInviteRow(t, db, orgID, enums.InviteStatusAccepted, now.Add(-time.Hour))
	otherOrg := seedInviteRow(t, db, uuid.New(), enums.InviteStatusPending, now.Add(-time.Hour))

	expired, err := repo.ExpireDueForOrg(ctx, orgID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	assertStatus := func(id uuid.UUID, want enums.InviteStatus) {
		t.Helper()
		var row models.Invite
		require.NoError(t, db.First(&row, "id = ?", id).Error)
		assert.Equal(t, want, row.Status)
	}
	assertStatus(due.ID, enums.InviteStatusExpired)
	assertStatus(fresh.ID, enums.InviteStatusPending)
	assertStatus(accepted.ID, enums.InviteStatusAccepted)
	assertStatus(otherOrg.ID, enums.InviteStatusPending)
}

func TestRepositoryExpireByID(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	pending := seedInviteRow(t, db, orgID, enums.InviteStatusPending, time.Now().Add(24*time.Hour))
	accepted := seedInviteRow(t, db, orgID, enums.InviteStatusAccepted, time.Now().Add(24*time.Hour))

	ok, err := repo.ExpireByID(ctx, orgID, pending.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExpireByID(ctx, orgID, accepted.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryHasPendingForEmail(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	invite := seedInviteRow(t, db, orgID, enums.InviteStatusPending, time.Now().Add(24*time.Hour))

	has, err := repo.HasPendingForEmail(ctx, orgID, invite.Email)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasPendingForEmail(ctx, orgID, "nobody@pharmhq.test")
	require.NoError(t, err)
	assert.False(t, has)

	has, err = repo.HasPendingForEmail(ctx, uuid.New(), invite.Email)
	require.NoError(t, err)
	assert.False(t, has)
}
