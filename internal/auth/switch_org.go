package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/internal/memberships"
	pkgAuth "github.com/pharmhq/pharmacy-backend/pkg/auth"
	"github.com/pharmhq/pharmacy-backend/pkg/auth/session"
	"github.com/pharmhq/pharmacy-backend/pkg/config"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
)

// SwitchOrgInput captures the data required to switch organizations.
type SwitchOrgInput struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	AccessTokenID  string
}

// SwitchOrgResult returns the tokens issued after switching organizations.
type SwitchOrgResult struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	Organization OrganizationSummary `json:"organization"`
}

type switchOrgService struct {
	memberships switchMembershipsRepository
	session     switchSessionRotator
	users       lastActiveOrgUpdater
	jwtCfg      config.JWTConfig
}

type switchMembershipsRepository interface {
	GetMembershipWithOrg(ctx context.Context, userID, orgID uuid.UUID) (*memberships.MembershipWithOrg, error)
}

type switchSessionRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	RefreshToken(ctx context.Context, accessID string) (string, error)
}

type lastActiveOrgUpdater interface {
	UpdateLastActiveOrg(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error
}

// SwitchOrgServiceParams bundles dependencies for the switch flow.
type SwitchOrgServiceParams struct {
	MembershipsRepo switchMembershipsRepository
	SessionManager  switchSessionRotator
	UserRepo        lastActiveOrgUpdater
	JWTConfig       config.JWTConfig
}

// SwitchOrgService is the interface exposed to the controller.
type SwitchOrgService interface {
	Switch(ctx context.Context, input SwitchOrgInput) (*SwitchOrgResult, error)
}

// NewSwitchOrgService constructs the service.
func NewSwitchOrgService(params SwitchOrgServiceParams) (SwitchOrgService, error) {
	if params.MembershipsRepo == nil {
		return nil, errors.New("memberships repository required")
	}
	if params.SessionManager == nil {
		return nil, errors.New("session manager required")
	}
	if params.UserRepo == nil {
		return nil, errors.New("user repository required")
	}
	return &switchOrgService{
		memberships: params.MembershipsRepo,
		session:     params.SessionManager,
		users:       params.UserRepo,
		jwtCfg:      params.JWTConfig,
	}, nil
}

func (s *switchOrgService) Switch(ctx context.Context, input SwitchOrgInput) (*SwitchOrgResult, error) {
	membership, err := s.memberships.GetMembershipWithOrg(ctx, input.UserID, input.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization membership required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup membership")
	}

	if err := s.users.UpdateLastActiveOrg(ctx, input.UserID, input.OrganizationID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remember active organization")
	}

	refreshToken, err := s.session.RefreshToken(ctx, input.AccessTokenID)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load refresh token")
	}

	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, input.AccessTokenID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	orgID := membership.OrganizationID
	role := membership.Role
	payload := pkgAuth.AccessTokenPayload{
		UserID:      input.UserID,
		ActiveOrgID: &orgID,
		Role:        &role,
		BranchIDs:   append([]uuid.UUID(nil), membership.BranchIDs...),
		JTI:         newAccessID,
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &SwitchOrgResult{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		Organization: summaryFromMembership(*membership),
	}, nil
}
