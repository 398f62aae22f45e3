package invites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/internal/memberships"
	"github.com/pharmhq/pharmacy-backend/internal/staff"
	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

// AcceptanceWorkflow turns a valid invitation into a membership, an
// organization staff profile, and a consumed invite — all in one
// transaction. Re-running the workflow on the same token fails on the
// conditional accept, so no step can double-apply.
type AcceptanceWorkflow struct {
	repo     acceptInviteRepo
	members  acceptMembershipRepo
	profiles acceptProfileRepo
	users    acceptUserRepo
	tx       acceptTxRunner
	logg     *logger.Logger
	now      func() time.Time
}

type acceptInviteRepo interface {
	FindByToken(ctx context.Context, token string) (*models.Invite, error)
	AcceptWithTx(tx *gorm.DB, inviteID, userID uuid.UUID, now time.Time) (int64, error)
}

type acceptMembershipRepo interface {
	UpsertMembershipWithTx(tx *gorm.DB, params memberships.CreateMembershipParams) (*models.Membership, error)
}

type acceptProfileRepo interface {
	UpsertProfileWithTx(tx *gorm.DB, params staff.UpsertProfileParams) error
}

type acceptUserRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastActiveOrg(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error
}

type acceptTxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AcceptanceWorkflowParams bundles the workflow dependencies.
type AcceptanceWorkflowParams struct {
	InviteRepo     acceptInviteRepo
	MembershipRepo acceptMembershipRepo
	ProfileRepo    acceptProfileRepo
	UserRepo       acceptUserRepo
	TxRunner       acceptTxRunner
	Logger         *logger.Logger
}

// NewAcceptanceWorkflow validates dependencies and builds the workflow.
func NewAcceptanceWorkflow(params AcceptanceWorkflowParams) (*AcceptanceWorkflow, error) {
	if params.InviteRepo == nil {
		return nil, fmt.Errorf("invite repository is required")
	}
	if params.MembershipRepo == nil {
		return nil, fmt.Errorf("membership repository is required")
	}
	if params.ProfileRepo == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &AcceptanceWorkflow{
		repo:     params.InviteRepo,
		members:  params.MembershipRepo,
		profiles: params.ProfileRepo,
		users:    params.UserRepo,
		tx:       params.TxRunner,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

// Accept consumes the invitation token on behalf of the signed-in user.
func (w *AcceptanceWorkflow) Accept(ctx context.Context, userID uuid.UUID, token string) (*AcceptResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}

	invite, err := w.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invite")
	}

	now := w.now().UTC()
	if reason := Validate(invite, now); reason != "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInvite, "invitation is not valid").
			WithDetails(map[string]any{"reason": reason})
	}

	user, err := w.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !strings.EqualFold(user.Email, invite.Email) {
		return nil, pkgerrors.New(pkgerrors.CodeEmailMismatch, "invitation was issued for a different email")
	}

	branchIDs := append([]uuid.UUID(nil), []uuid.UUID(invite.BranchIDs)...)
	invitedBy := invite.InvitedByID

	err = w.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := w.members.UpsertMembershipWithTx(tx, memberships.CreateMembershipParams{
			UserID:         userID,
			OrganizationID: invite.OrganizationID,
			Role:           invite.Role,
			BranchIDs:      branchIDs,
			InvitedByID:    &invitedBy,
			JoinedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("upsert membership: %w", err)
		}

		if err := w.profiles.UpsertProfileWithTx(tx, staff.UpsertProfileParams{
			OrganizationID: invite.OrganizationID,
			UserID:         userID,
			Email:          invite.Email,
			DisplayName:    user.DisplayName,
			Role:           invite.Role,
			BranchIDs:      branchIDs,
			JoinedAt:       now,
		}); err != nil {
			return fmt.Errorf("upsert staff profile: %w", err)
		}

		rows, err := w.repo.AcceptWithTx(tx, invite.ID, userID, now)
		if err != nil {
			return fmt.Errorf("accept invite: %w", err)
		}
		if rows == 0 {
			// Another acceptance won the race; roll everything back.
			return pkgerrors.New(pkgerrors.CodeInvalidInvite, "invitation is not valid").
				WithDetails(map[string]any{"reason": ReasonUsedOrExpired})
		}
		return nil
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acceptance transaction")
	}

	// The next session starts in the organization that was just joined.
	if err := w.users.UpdateLastActiveOrg(ctx, userID, invite.OrganizationID); err != nil {
		w.logg.Error(ctx, "failed to remember newly joined organization", err)
	}

	result := &AcceptResult{
		OrganizationID: invite.OrganizationID,
		Role:           invite.Role,
		BranchIDs:      branchIDs,
	}
	if invite.Organization != nil {
		result.OrganizationName = invite.Organization.Name
	}
	return result, nil
}
