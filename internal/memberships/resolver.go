package memberships

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

// Resolver produces the effective organization list for a user. Accounts
// created before multi-organization support carry a flat organization/role
// pair on the user row instead of membership rows; the resolver folds those
// into the same shape so callers never see the legacy layout.
type Resolver struct {
	repo          resolverMembershipRepo
	orgs          resolverOrgRepo
	users         legacyProfileClearer
	tx            txRunner
	logg          *logger.Logger
	persistLegacy bool
}

type resolverMembershipRepo interface {
	ListUserOrganizations(ctx context.Context, userID uuid.UUID) ([]MembershipWithOrg, error)
	UpsertMembershipWithTx(tx *gorm.DB, params CreateMembershipParams) (*models.Membership, error)
}

type resolverOrgRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type legacyProfileClearer interface {
	ClearLegacyProfile(tx *gorm.DB, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ResolverParams bundles the resolver dependencies.
type ResolverParams struct {
	MembershipRepo resolverMembershipRepo
	OrgRepo        resolverOrgRepo
	UserRepo       legacyProfileClearer
	TxRunner       txRunner
	Logger         *logger.Logger
	PersistLegacy  bool
}

// NewResolver validates dependencies and builds a membership resolver.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.MembershipRepo == nil {
		return nil, fmt.Errorf("membership repository is required")
	}
	if params.OrgRepo == nil {
		return nil, fmt.Errorf("organization repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.PersistLegacy && (params.TxRunner == nil || params.UserRepo == nil) {
		return nil, fmt.Errorf("tx runner and user repository are required to persist legacy profiles")
	}
	return &Resolver{
		repo:          params.MembershipRepo,
		orgs:          params.OrgRepo,
		tx:            params.TxRunner,
		logg:          params.Logger,
		persistLegacy: params.PersistLegacy,
		users:         params.UserRepo,
	}, nil
}

// Resolve returns the user's memberships, synthesizing one from the legacy
// flat columns when no membership rows exist yet.
func (r *Resolver) Resolve(ctx context.Context, user *models.User) ([]MembershipWithOrg, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user is required")
	}

	rows, err := r.repo.ListUserOrganizations(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list memberships")
	}
	if len(rows) > 0 {
		return rows, nil
	}

	legacy, err := r.fromLegacyProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	if legacy == nil {
		return []MembershipWithOrg{}, nil
	}

	if r.persistLegacy {
		if err := r.persistLegacyMembership(ctx, user, *legacy); err != nil {
			// The synthesized view is still correct; the write is retried on
			// the next resolve.
			r.logg.Error(ctx, "persisting legacy membership failed", err)
		}
	}

	return []MembershipWithOrg{*legacy}, nil
}

// SelectCurrent picks the organization a fresh session should start in: the
// one the user last worked in when it is still theirs, the sole membership
// when there is exactly one, and the first listed otherwise.
func (r *Resolver) SelectCurrent(user *models.User, rows []MembershipWithOrg) *MembershipWithOrg {
	if len(rows) == 0 {
		return nil
	}
	if user != nil && user.LastActiveOrgID != nil {
		for i := range rows {
			if rows[i].OrganizationID == *user.LastActiveOrgID {
				return &rows[i]
			}
		}
	}
	return &rows[0]
}

func (r *Resolver) fromLegacyProfile(ctx context.Context, user *models.User) (*MembershipWithOrg, error) {
	if user.LegacyOrganizationID == nil || user.LegacyRole == nil {
		return nil, nil
	}
	if !user.LegacyRole.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("legacy role %q is not recognized", *user.LegacyRole))
	}

	org, err := r.orgs.FindByID(ctx, *user.LegacyOrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Organization was deleted out from under the legacy profile.
			logCtx := r.logg.WithField(ctx, "legacy_org_id", user.LegacyOrganizationID.String())
			r.logg.Warn(logCtx, "legacy organization no longer exists")
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup legacy organization")
	}

	joined := user.CreatedAt
	if joined.IsZero() {
		joined = time.Now().UTC()
	}

	return &MembershipWithOrg{
		OrganizationID: org.ID,
		UserID:         user.ID,
		OrgName:        org.Name,
		OrgLogoURL:     org.LogoURL,
		Role:           *user.LegacyRole,
		BranchIDs:      append([]uuid.UUID(nil), []uuid.UUID(user.LegacyAssignedBranches)...),
		JoinedAt:       joined,
	}, nil
}

func (r *Resolver) persistLegacyMembership(ctx context.Context, user *models.User, m MembershipWithOrg) error {
	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := r.repo.UpsertMembershipWithTx(tx, CreateMembershipParams{
			UserID:         user.ID,
			OrganizationID: m.OrganizationID,
			Role:           m.Role,
			BranchIDs:      m.BranchIDs,
			JoinedAt:       m.JoinedAt,
		})
		if err != nil {
			return err
		}
		return r.users.ClearLegacyProfile(tx, user.ID)
	})
}
