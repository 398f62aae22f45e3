package orgs

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

// Service exposes organization settings operations.
type Service interface {
	Get(ctx context.Context, orgID uuid.UUID) (*OrganizationDTO, error)
	Update(ctx context.Context, orgID uuid.UUID, input UpdateInput) (*OrganizationDTO, error)
}

type orgRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// ServiceParams bundles the service dependencies.
type ServiceParams struct {
	Repo   orgRepository
	Logger *logger.Logger
}

type service struct {
	repo orgRepository
	logg *logger.Logger
}

// NewService validates dependencies and builds the organizations service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("organization repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

func (s *service) Get(ctx context.Context, orgID uuid.UUID) (*OrganizationDTO, error) {
	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	return ToDTO(org), nil
}

func (s *service) Update(ctx context.Context, orgID uuid.UUID, input UpdateInput) (*OrganizationDTO, error) {
	updates := map[string]any{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization name cannot be empty")
		}
		updates["name"] = name
	}
	if input.LogoURL != nil {
		updates["logo_url"] = *input.LogoURL
	}
	if input.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if len(currency) != 3 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency must be a 3-letter ISO code")
		}
		updates["currency"] = currency
	}
	if input.TaxRate != nil {
		if *input.TaxRate < 0 || *input.TaxRate > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be between 0 and 100")
		}
		updates["tax_rate"] = *input.TaxRate
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updatable fields provided")
	}

	if err := s.repo.Update(ctx, orgID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update organization")
	}
	return s.Get(ctx, orgID)
}
