package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/internal/memberships"
	pkgAuth "github.com/pharmhq/pharmacy-backend/pkg/auth"
	"github.com/pharmhq/pharmacy-backend/pkg/auth/session"
	"github.com/pharmhq/pharmacy-backend/pkg/config"
	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "pharmhq",
	ExpirationMinutes: 30,
}

type fakeUserRepo struct {
	byEmail   map[string]*models.User
	lastLogin map[uuid.UUID]time.Time
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin[id] = at
	return nil
}

type fakeResolver struct {
	rows    []memberships.MembershipWithOrg
	current *memberships.MembershipWithOrg
}

func (f *fakeResolver) Resolve(ctx context.Context, user *models.User) ([]memberships.MembershipWithOrg, error) {
	return f.rows, nil
}

func (f *fakeResolver) SelectCurrent(user *models.User, rows []memberships.MembershipWithOrg) *memberships.MembershipWithOrg {
	return f.current
}

type fakeSession struct {
	tokens  map[string]string
	revoked []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{tokens: map[string]string{}}
}

func (f *fakeSession) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.tokens[accessID] = token
	return token, nil
}

func (f *fakeSession) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.tokens, oldAccessID)
	newID := uuid.NewString()
	token := "refresh-" + newID
	f.tokens[newID] = token
	return newID, token, nil
}

func (f *fakeSession) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	delete(f.tokens, accessID)
	return nil
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Test Pharmacist",
		IsActive:     true,
	}
	repo.byEmail[email] = user
	return user
}

func newLoginFixture(t *testing.T, resolver *fakeResolver) (Service, *fakeUserRepo, *fakeSession) {
	t.Helper()
	repo := &fakeUserRepo{byEmail: map[string]*models.User{}, lastLogin: map[uuid.UUID]time.Time{}}
	sess := newFakeSession()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		Resolver:       resolver,
		SessionManager: sess,
		JWTConfig:      testJWTConfig,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, sess
}

func membershipRow(orgID uuid.UUID, name string, role enums.UserRole) memberships.MembershipWithOrg {
	return memberships.MembershipWithOrg{
		MembershipID:   uuid.New(),
		OrganizationID: orgID,
		OrgName:        name,
		Role:           role,
	}
}

func TestLoginIssuesOrgScopedToken(t *testing.T) {
	orgID := uuid.New()
	row := membershipRow(orgID, "Mercy Pharmacy", enums.UserRoleManager)
	resolver := &fakeResolver{rows: []memberships.MembershipWithOrg{row}, current: &row}
	svc, repo, _ := newLoginFixture(t, resolver)
	user := seedUser(t, repo, "owner@example.com", "correct horse")

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " Owner@Example.COM ", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token issued for wrong user")
	}
	if claims.ActiveOrgID == nil || *claims.ActiveOrgID != orgID {
		t.Fatalf("expected active org %s in token", orgID)
	}
	if claims.Role == nil || *claims.Role != enums.UserRoleManager {
		t.Fatalf("expected manager role in token, got %v", claims.Role)
	}
	if len(resp.Organizations) != 1 || resp.Organizations[0].Name != "Mercy Pharmacy" {
		t.Fatalf("unexpected organizations %+v", resp.Organizations)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected a refresh token")
	}
	if _, ok := repo.lastLogin[user.ID]; !ok {
		t.Fatalf("last login not recorded")
	}
}

func TestLoginWithoutOrganizationsStillSucceeds(t *testing.T) {
	resolver := &fakeResolver{}
	svc, repo, _ := newLoginFixture(t, resolver)
	seedUser(t, repo, "new@example.com", "correct horse")

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "new@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ActiveOrgID != nil || claims.Role != nil {
		t.Fatalf("token must carry no organization context")
	}
	if len(resp.Organizations) != 0 {
		t.Fatalf("expected empty organization list")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	resolver := &fakeResolver{}
	svc, repo, _ := newLoginFixture(t, resolver)
	user := seedUser(t, repo, "owner@example.com", "correct horse")

	cases := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "owner@example.com", Password: "wrong"}},
		{"unknown email", LoginRequest{Email: "nobody@example.com", Password: "correct horse"}},
		{"blank email", LoginRequest{Password: "correct horse"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(context.Background(), tc.req); pkgerrors.Code(err) != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}

	user.IsActive = false
	if _, err := svc.Login(context.Background(), LoginRequest{Email: "owner@example.com", Password: "correct horse"}); pkgerrors.Code(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("inactive user must not log in, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	resolver := &fakeResolver{}
	svc, repo, sess := newLoginFixture(t, resolver)
	seedUser(t, repo, "owner@example.com", "correct horse")

	login, err := svc.Login(context.Background(), LoginRequest{Email: "owner@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatalf("refresh token must rotate")
	}

	// The old pair is dead after rotation.
	if _, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	}); pkgerrors.Code(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on replayed refresh, got %v", err)
	}
	_ = sess
}

func TestMeListsOrganizations(t *testing.T) {
	orgID := uuid.New()
	row := membershipRow(orgID, "Mercy Pharmacy", enums.UserRoleOwner)
	resolver := &fakeResolver{rows: []memberships.MembershipWithOrg{row}, current: &row}
	svc, repo, _ := newLoginFixture(t, resolver)
	user := seedUser(t, repo, "owner@example.com", "correct horse")

	me, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.User == nil || me.User.ID != user.ID {
		t.Fatalf("unexpected user payload %+v", me.User)
	}
	if len(me.Organizations) != 1 || me.Organizations[0].ID != orgID {
		t.Fatalf("unexpected organizations %+v", me.Organizations)
	}

	if _, err := svc.Me(context.Background(), uuid.New()); pkgerrors.Code(err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("unknown user must be unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	resolver := &fakeResolver{}
	svc, repo, sess := newLoginFixture(t, resolver)
	seedUser(t, repo, "owner@example.com", "correct horse")

	login, err := svc.Login(context.Background(), LoginRequest{Email: "owner@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, login.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sess.revoked) != 1 || sess.revoked[0] != claims.ID {
		t.Fatalf("session not revoked")
	}
}
