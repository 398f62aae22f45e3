package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/pagination"
)

// Service manages the organization staff directory.
type Service interface {
	List(ctx context.Context, orgID uuid.UUID, params pagination.Params) (*ListResult, error)
	Update(ctx context.Context, orgID, actorID, userID uuid.UUID, input UpdateInput) (*ProfileDTO, error)
	Remove(ctx context.Context, orgID, actorID, userID uuid.UUID) error
}

type staffRepository interface {
	GetProfile(ctx context.Context, orgID, userID uuid.UUID) (*models.OrgUser, error)
	List(ctx context.Context, params listProfilesParams) ([]models.OrgUser, *pagination.Cursor, error)
	UpdateRoleAndBranches(tx *gorm.DB, orgID, userID uuid.UUID, role enums.UserRole, branchIDs []uuid.UUID) error
	SetStatus(ctx context.Context, orgID, userID uuid.UUID, status enums.StaffStatus) (bool, error)
	RemoveWithTx(tx *gorm.DB, orgID, userID uuid.UUID) (bool, error)
}

type staffTxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo staffRepository
	tx   staffTxRunner
}

// ServiceParams bundles the staff service dependencies.
type ServiceParams struct {
	Repo     staffRepository
	TxRunner staffTxRunner
}

// NewService validates dependencies and builds the staff service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("staff repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	return &service{repo: params.Repo, tx: params.TxRunner}, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, params pagination.Params) (*ListResult, error) {
	query := listProfilesParams{
		OrgID: orgID,
		Limit: pagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff")
	}

	items := make([]ProfileDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *ToDTO(&rows[i]))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Update(ctx context.Context, orgID, actorID, userID uuid.UUID, input UpdateInput) (*ProfileDTO, error) {
	profile, err := s.loadProfile(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if profile.Role == enums.UserRoleOwner && actorID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "the owner profile can only be changed by the owner")
	}

	if input.Role != nil || input.BranchIDs != nil {
		role := profile.Role
		if input.Role != nil {
			if !input.Role.IsValid() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("role %q is not recognized", *input.Role))
			}
			role = *input.Role
		}
		branchIDs := []uuid.UUID(profile.BranchIDs)
		if input.BranchIDs != nil {
			branchIDs = input.BranchIDs
		}
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.repo.UpdateRoleAndBranches(tx, orgID, userID, role, branchIDs)
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update staff role")
		}
	}

	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("status %q is not recognized", *input.Status))
		}
		if _, err := s.repo.SetStatus(ctx, orgID, userID, *input.Status); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update staff status")
		}
	}

	updated, err := s.loadProfile(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	return ToDTO(updated), nil
}

func (s *service) Remove(ctx context.Context, orgID, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return pkgerrors.New(pkgerrors.CodeValidation, "you cannot remove yourself from the organization")
	}
	profile, err := s.loadProfile(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if profile.Role == enums.UserRoleOwner {
		return pkgerrors.New(pkgerrors.CodeForbidden, "the organization owner cannot be removed")
	}

	var removed bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		removed, txErr = s.repo.RemoveWithTx(tx, orgID, userID)
		return txErr
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove staff")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "staff member not found")
	}
	return nil
}

func (s *service) loadProfile(ctx context.Context, orgID, userID uuid.UUID) (*models.OrgUser, error) {
	profile, err := s.repo.GetProfile(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "staff member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load staff profile")
	}
	return profile, nil
}
