package invites

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/internal/memberships"
	"github.com/pharmhq/pharmacy-backend/internal/staff"
	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	dbtypes "github.com/pharmhq/pharmacy-backend/pkg/db/types"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
)

type fakeAcceptInviteRepo struct {
	byToken map[string]*models.Invite
}

func (f *fakeAcceptInviteRepo) FindByToken(ctx context.Context, token string) (*models.Invite, error) {
	invite, ok := f.byToken[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return invite, nil
}

func (f *fakeAcceptInviteRepo) AcceptWithTx(tx *gorm.DB, inviteID, userID uuid.UUID, now time.Time) (int64, error) {
	for _, invite := range f.byToken {
		if invite.ID == inviteID && invite.Status == enums.InviteStatusPending {
			invite.Status = enums.InviteStatusAccepted
			invite.AcceptedAt = &now
			invite.AcceptedByID = &userID
			return 1, nil
		}
	}
	return 0, nil
}

type fakeAcceptMembershipRepo struct {
	upserts []memberships.CreateMembershipParams
}

func (f *fakeAcceptMembershipRepo) UpsertMembershipWithTx(tx *gorm.DB, params memberships.CreateMembershipParams) (*models.Membership, error) {
	f.upserts = append(f.upserts, params)
	return &models.Membership{UserID: params.UserID, OrganizationID: params.OrganizationID, Role: params.Role}, nil
}

type fakeAcceptProfileRepo struct {
	upserts []staff.UpsertProfileParams
}

func (f *fakeAcceptProfileRepo) UpsertProfileWithTx(tx *gorm.DB, params staff.UpsertProfileParams) error {
	f.upserts = append(f.upserts, params)
	return nil
}

type fakeAcceptUserRepo struct {
	users      map[uuid.UUID]*models.User
	lastActive map[uuid.UUID]uuid.UUID
}

func (f *fakeAcceptUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAcceptUserRepo) UpdateLastActiveOrg(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error {
	f.lastActive[id] = orgID
	return nil
}

type fakeAcceptTxRunner struct {
	calls int
}

func (f *fakeAcceptTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	return fn(nil)
}

type acceptanceFixture struct {
	workflow *AcceptanceWorkflow
	invites  *fakeAcceptInviteRepo
	members  *fakeAcceptMembershipRepo
	profiles *fakeAcceptProfileRepo
	users    *fakeAcceptUserRepo
	tx       *fakeAcceptTxRunner
}

func newAcceptanceFixture(t *testing.T) *acceptanceFixture {
	t.Helper()
	f := &acceptanceFixture{
		invites:  &fakeAcceptInviteRepo{byToken: map[string]*models.Invite{}},
		members:  &fakeAcceptMembershipRepo{},
		profiles: &fakeAcceptProfileRepo{},
		users:    &fakeAcceptUserRepo{users: map[uuid.UUID]*models.User{}, lastActive: map[uuid.UUID]uuid.UUID{}},
		tx:       &fakeAcceptTxRunner{},
	}
	workflow, err := NewAcceptanceWorkflow(AcceptanceWorkflowParams{
		InviteRepo:     f.invites,
		MembershipRepo: f.members,
		ProfileRepo:    f.profiles,
		UserRepo:       f.users,
		TxRunner:       f.tx,
		Logger:         testLogger(),
	})
	if err != nil {
		t.Fatalf("new workflow: %v", err)
	}
	f.workflow = workflow
	return f
}

func (f *acceptanceFixture) seedInvite(email string) (*models.Invite, *models.User) {
	branch := uuid.New()
	invite := &models.Invite{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Email:          email,
		Role:           enums.UserRolePharmacist,
		BranchIDs:      dbtypes.UUIDArray{branch},
		Status:         enums.InviteStatusPending,
		InvitedByID:    uuid.New(),
		ExpiresAt:      time.Now().UTC().Add(24 * time.Hour),
		InviteToken:    "tok-1",
		Organization:   &models.Organization{Name: "Mercy Pharmacy"},
	}
	user := &models.User{ID: uuid.New(), Email: email, DisplayName: "New Hire"}
	f.invites.byToken[invite.InviteToken] = invite
	f.users.users[user.ID] = user
	return invite, user
}

func TestAcceptGrantsMembershipProfileAndConsumesInvite(t *testing.T) {
	f := newAcceptanceFixture(t)
	invite, user := f.seedInvite("hire@example.com")

	result, err := f.workflow.Accept(context.Background(), user.ID, "tok-1")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	if result.OrganizationID != invite.OrganizationID || result.Role != enums.UserRolePharmacist {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.OrganizationName != "Mercy Pharmacy" {
		t.Fatalf("expected organization name in result")
	}
	if len(f.members.upserts) != 1 {
		t.Fatalf("expected membership upsert")
	}
	m := f.members.upserts[0]
	if m.UserID != user.ID || m.OrganizationID != invite.OrganizationID || m.Role != invite.Role {
		t.Fatalf("unexpected membership params %+v", m)
	}
	if m.InvitedByID == nil || *m.InvitedByID != invite.InvitedByID {
		t.Fatalf("inviter not recorded on membership")
	}
	if len(f.profiles.upserts) != 1 {
		t.Fatalf("expected staff profile upsert")
	}
	if invite.Status != enums.InviteStatusAccepted || invite.AcceptedByID == nil || *invite.AcceptedByID != user.ID {
		t.Fatalf("invite not consumed: %+v", invite)
	}
	if f.tx.calls != 1 {
		t.Fatalf("all writes must share one transaction")
	}
	if f.users.lastActive[user.ID] != invite.OrganizationID {
		t.Fatalf("expected joined org to become the remembered org")
	}
}

func TestAcceptIsCaseInsensitiveOnEmail(t *testing.T) {
	f := newAcceptanceFixture(t)
	_, user := f.seedInvite("hire@example.com")
	user.Email = "HIRE@Example.COM"

	if _, err := f.workflow.Accept(context.Background(), user.ID, "tok-1"); err != nil {
		t.Fatalf("case-different email must be accepted: %v", err)
	}
}

func TestAcceptRejectsEmailMismatch(t *testing.T) {
	f := newAcceptanceFixture(t)
	_, user := f.seedInvite("hire@example.com")
	user.Email = "someone.else@example.com"

	_, err := f.workflow.Accept(context.Background(), user.ID, "tok-1")
	if pkgerrors.Code(err) != pkgerrors.CodeEmailMismatch {
		t.Fatalf("expected email mismatch, got %v", err)
	}
	if len(f.members.upserts) != 0 {
		t.Fatalf("no membership may be created on mismatch")
	}
}

func TestAcceptRejectsInvalidStates(t *testing.T) {
	f := newAcceptanceFixture(t)
	invite, user := f.seedInvite("hire@example.com")

	invite.Status = enums.InviteStatusAccepted
	_, err := f.workflow.Accept(context.Background(), user.ID, "tok-1")
	if pkgerrors.Code(err) != pkgerrors.CodeInvalidInvite {
		t.Fatalf("expected invalid invite for consumed token, got %v", err)
	}

	invite.Status = enums.InviteStatusPending
	invite.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	_, err = f.workflow.Accept(context.Background(), user.ID, "tok-1")
	if pkgerrors.Code(err) != pkgerrors.CodeInvalidInvite {
		t.Fatalf("expected invalid invite for expired token, got %v", err)
	}

	if _, err := f.workflow.Accept(context.Background(), user.ID, "unknown"); pkgerrors.Code(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown token, got %v", err)
	}
	if _, err := f.workflow.Accept(context.Background(), user.ID, "  "); pkgerrors.Code(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for blank token, got %v", err)
	}
}

func TestAcceptTwiceYieldsSingleMembership(t *testing.T) {
	f := newAcceptanceFixture(t)
	_, user := f.seedInvite("hire@example.com")

	if _, err := f.workflow.Accept(context.Background(), user.ID, "tok-1"); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err := f.workflow.Accept(context.Background(), user.ID, "tok-1")
	if pkgerrors.Code(err) != pkgerrors.CodeInvalidInvite {
		t.Fatalf("second accept must fail invalid invite, got %v", err)
	}
	if len(f.members.upserts) != 1 || len(f.profiles.upserts) != 1 {
		t.Fatalf("repeat acceptance must not duplicate writes")
	}
}
