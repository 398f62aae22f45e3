package branches

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

// Service exposes branch management for one organization.
type Service interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (*BranchDTO, error)
	Get(ctx context.Context, orgID, branchID uuid.UUID) (*BranchDTO, error)
	List(ctx context.Context, orgID uuid.UUID) ([]BranchDTO, error)
	Update(ctx context.Context, orgID, branchID uuid.UUID, input UpdateInput) (*BranchDTO, error)
	Delete(ctx context.Context, orgID, branchID uuid.UUID) error
}

type branchRepository interface {
	Create(ctx context.Context, branch *models.Branch) error
	FindInOrg(ctx context.Context, orgID, branchID uuid.UUID) (*models.Branch, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Branch, error)
	CountByOrg(ctx context.Context, orgID uuid.UUID) (int64, error)
	Update(ctx context.Context, orgID, branchID uuid.UUID, updates map[string]any) (bool, error)
	Delete(ctx context.Context, orgID, branchID uuid.UUID) (bool, error)
}

// ServiceParams bundles the service dependencies.
type ServiceParams struct {
	Repo   branchRepository
	Logger *logger.Logger
}

type service struct {
	repo branchRepository
	logg *logger.Logger
}

// NewService validates dependencies and builds the branches service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("branch repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

func (s *service) Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (*BranchDTO, error) {
	name := strings.TrimSpace(input.Name)
	address := strings.TrimSpace(input.Address)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name is required")
	}
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch address is required")
	}

	branch := &models.Branch{
		OrganizationID: orgID,
		Name:           name,
		Address:        address,
		Phone:          strings.TrimSpace(input.Phone),
		License:        strings.TrimSpace(input.License),
	}
	if err := s.repo.Create(ctx, branch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create branch")
	}
	return ToDTO(branch), nil
}

func (s *service) Get(ctx context.Context, orgID, branchID uuid.UUID) (*BranchDTO, error) {
	branch, err := s.repo.FindInOrg(ctx, orgID, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	return ToDTO(branch), nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID) ([]BranchDTO, error) {
	branches, err := s.repo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list branches")
	}
	return toDTOs(branches), nil
}

func (s *service) Update(ctx context.Context, orgID, branchID uuid.UUID, input UpdateInput) (*BranchDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Address != nil {
		address := strings.TrimSpace(*input.Address)
		if address == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch address cannot be empty")
		}
		updates["address"] = address
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.License != nil {
		updates["license"] = strings.TrimSpace(*input.License)
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updatable fields provided")
	}

	matched, err := s.repo.Update(ctx, orgID, branchID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update branch")
	}
	if !matched {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}
	return s.Get(ctx, orgID, branchID)
}

func (s *service) Delete(ctx context.Context, orgID, branchID uuid.UUID) error {
	count, err := s.repo.CountByOrg(ctx, orgID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count branches")
	}
	if count <= 1 {
		// Staff and invites are always scoped to at least one branch.
		return pkgerrors.New(pkgerrors.CodeValidation, "an organization must keep at least one branch")
	}

	matched, err := s.repo.Delete(ctx, orgID, branchID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete branch")
	}
	if !matched {
		return pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}
	return nil
}
