package invites

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/config"
	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	dbtypes "github.com/pharmhq/pharmacy-backend/pkg/db/types"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

// Validity reasons surfaced to invitees.
const (
	ReasonUsedOrExpired = "invite has already been used or expired"
	ReasonExpired       = "invite has expired"
)

// Service manages the invitation lifecycle for an organization.
type Service interface {
	Create(ctx context.Context, orgID, invitedBy uuid.UUID, input CreateInviteInput) (*CreateInviteResult, error)
	Lookup(ctx context.Context, token string) (*LookupResult, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]InviteDTO, error)
	ListPending(ctx context.Context, orgID uuid.UUID) ([]InviteDTO, error)
	Expire(ctx context.Context, orgID, inviteID uuid.UUID) error
}

// InviteEmailParams carries everything the mailer needs to compose the
// invitation message.
type InviteEmailParams struct {
	To               string
	OrganizationName string
	InviterName      string
	Role             enums.UserRole
	AcceptLink       string
	ExpiresAt        time.Time
}

type inviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	FindByToken(ctx context.Context, token string) (*models.Invite, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Invite, error)
	ListPendingByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Invite, error)
	HasPendingForEmail(ctx context.Context, orgID uuid.UUID, email string) (bool, error)
	ExpireByID(ctx context.Context, orgID, inviteID uuid.UUID) (bool, error)
}

type inviteUserLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type inviteMembershipChecker interface {
	GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error)
}

type inviteOrgLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type inviteMailer interface {
	SendInviteEmail(ctx context.Context, params InviteEmailParams) error
}

// ServiceParams bundles the invite service dependencies.
type ServiceParams struct {
	Repo        inviteRepository
	Users       inviteUserLookup
	Memberships inviteMembershipChecker
	Orgs        inviteOrgLookup
	Mailer      inviteMailer
	Logger      *logger.Logger
	Config      config.InviteConfig
}

type service struct {
	repo        inviteRepository
	users       inviteUserLookup
	memberships inviteMembershipChecker
	orgs        inviteOrgLookup
	mailer      inviteMailer
	logg        *logger.Logger
	cfg         config.InviteConfig
	now         func() time.Time
}

// NewService validates dependencies and builds the invite service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("invite repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Memberships == nil {
		return nil, fmt.Errorf("memberships repository is required")
	}
	if params.Orgs == nil {
		return nil, fmt.Errorf("organization repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:        params.Repo,
		users:       params.Users,
		memberships: params.Memberships,
		orgs:        params.Orgs,
		mailer:      params.Mailer,
		logg:        params.Logger,
		cfg:         params.Config,
		now:         time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, orgID, invitedBy uuid.UUID, input CreateInviteInput) (*CreateInviteResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("role %q is not recognized", input.Role))
	}
	if len(input.BranchIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one branch must be assigned")
	}

	pending, err := s.repo.HasPendingForEmail(ctx, orgID, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending invites")
	}
	if pending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a pending invitation already exists for this email")
	}

	if err := s.rejectExistingMember(ctx, orgID, email); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	invite := &models.Invite{
		OrganizationID: orgID,
		Email:          email,
		Role:           input.Role,
		BranchIDs:      dbtypes.UUIDArray(input.BranchIDs),
		Status:         enums.InviteStatusPending,
		InvitedByID:    invitedBy,
		// CreatedAt is set explicitly so expires_at is exactly created_at
		// plus the configured window; autoCreateTime would stamp its own
		// clock a few microseconds later.
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Expiry()),
	}

	token, err := s.persistWithFreshToken(ctx, invite)
	if err != nil {
		return nil, err
	}

	s.sendInviteEmail(ctx, invite, token)

	return &CreateInviteResult{
		Invite: *ToDTO(invite),
		Token:  token,
	}, nil
}

// persistWithFreshToken generates a token and inserts the invite, retrying
// once when the unique index reports a collision.
func (s *service) persistWithFreshToken(ctx context.Context, invite *models.Invite) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := GenerateToken()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate token")
		}
		invite.InviteToken = token
		if err := s.repo.Create(ctx, invite); err != nil {
			if pkgerrors.IsUniqueViolation(err) && attempt == 0 {
				continue
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist invite")
		}
		return token, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique invite token")
}

func (s *service) rejectExistingMember(ctx context.Context, orgID uuid.UUID, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invitee")
	}
	if _, err := s.memberships.GetMembership(ctx, user.ID, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invitee membership")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "user is already a member of this organization")
}

// sendInviteEmail dispatches the notification. Delivery problems never fail
// the creation: the invite row is already committed and the token can be
// re-sent out of band.
func (s *service) sendInviteEmail(ctx context.Context, invite *models.Invite, token string) {
	if s.mailer == nil {
		return
	}

	orgName := ""
	if org, err := s.orgs.FindByID(ctx, invite.OrganizationID); err == nil {
		orgName = org.Name
	}
	inviterName := ""
	if inviter, err := s.users.FindByID(ctx, invite.InvitedByID); err == nil {
		inviterName = inviter.DisplayName
	}

	err := s.mailer.SendInviteEmail(ctx, InviteEmailParams{
		To:               invite.Email,
		OrganizationName: orgName,
		InviterName:      inviterName,
		Role:             invite.Role,
		AcceptLink:       s.cfg.AcceptLink(token),
		ExpiresAt:        invite.ExpiresAt,
	})
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"invite_id": invite.ID, "org_id": invite.OrganizationID})
		s.logg.Error(logCtx, "invite email dispatch failed", err)
	}
}

func (s *service) Lookup(ctx context.Context, token string) (*LookupResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}

	invite, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invite")
	}

	result := &LookupResult{
		Email:     invite.Email,
		Role:      invite.Role,
		ExpiresAt: invite.ExpiresAt,
	}
	if invite.Organization != nil {
		result.OrganizationName = invite.Organization.Name
	}
	if invite.InvitedBy != nil {
		result.InviterName = invite.InvitedBy.DisplayName
	}

	if reason := Validate(invite, s.now().UTC()); reason != "" {
		result.Reason = reason
		return result, nil
	}
	result.Valid = true
	return result, nil
}

func (s *service) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]InviteDTO, error) {
	rows, err := s.repo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invites")
	}
	return toDTOs(rows), nil
}

func (s *service) ListPending(ctx context.Context, orgID uuid.UUID) ([]InviteDTO, error) {
	rows, err := s.repo.ListPendingByOrg(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending invites")
	}
	return toDTOs(rows), nil
}

// Expire transitions a pending invite to expired. Invites that already left
// the pending state are left as they are.
func (s *service) Expire(ctx context.Context, orgID, inviteID uuid.UUID) error {
	updated, err := s.repo.ExpireByID(ctx, orgID, inviteID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire invite")
	}
	if !updated {
		logCtx := s.logg.WithFields(ctx, map[string]any{"invite_id": inviteID, "org_id": orgID})
		s.logg.Info(logCtx, "expire skipped for non-pending invite")
	}
	return nil
}

// Validate reports why an invite cannot be accepted, or "" when it can. The
// status check runs before the deadline check so consumed invites are never
// reported as merely expired.
func Validate(invite *models.Invite, now time.Time) string {
	if invite.Status != enums.InviteStatusPending {
		return ReasonUsedOrExpired
	}
	if !now.Before(invite.ExpiresAt) {
		return ReasonExpired
	}
	return ""
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email address is not valid")
	}
	return email, nil
}
