package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
	"github.com/pharmhq/pharmacy-backend/pkg/pagination"
)

// Service exposes catalog and stock management for one organization.
type Service interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (*ProductDTO, error)
	Get(ctx context.Context, orgID, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, orgID uuid.UUID, page pagination.Params, filters ListFilters) (*ListResult, error)
	Update(ctx context.Context, orgID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Deactivate(ctx context.Context, orgID, productID uuid.UUID) error
	ReceiveStock(ctx context.Context, orgID, productID uuid.UUID, input ReceiveStockInput) (*ProductDTO, error)
}

type productRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindInOrg(ctx context.Context, orgID, productID uuid.UUID) (*models.Product, error)
	FindWithBatches(ctx context.Context, orgID, productID uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, orgID, productID uuid.UUID, updates map[string]any) (bool, error)
	Deactivate(ctx context.Context, orgID, productID uuid.UUID) (bool, error)
	List(ctx context.Context, query listQuery) ([]models.Product, string, error)
	CreateBatch(ctx context.Context, batch *models.StockBatch) error
}

type branchChecker interface {
	ExistsInOrg(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (bool, error)
}

// ServiceParams bundles the service dependencies.
type ServiceParams struct {
	Repo     productRepository
	Branches branchChecker
	Logger   *logger.Logger
}

type service struct {
	repo     productRepository
	branches branchChecker
	logg     *logger.Logger
}

// NewService validates dependencies and builds the catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	if params.Branches == nil {
		return nil, fmt.Errorf("branch checker is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: params.Repo, branches: params.Branches, logg: params.Logger}, nil
}

func (s *service) Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.UnitPriceCents < 0 || input.CostCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	if input.ReorderLevel < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder level cannot be negative")
	}

	form := enums.ProductFormOther
	if strings.TrimSpace(input.Form) != "" {
		parsed, err := enums.ParseProductForm(input.Form)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product form")
		}
		form = parsed
	}

	product := &models.Product{
		OrganizationID: orgID,
		Name:           name,
		GenericName:    input.GenericName,
		Form:           form,
		Strength:       input.Strength,
		Barcode:        input.Barcode,
		UnitPriceCents: input.UnitPriceCents,
		CostCents:      input.CostCents,
		ReorderLevel:   input.ReorderLevel,
		RequiresRx:     input.RequiresRx,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return ToDTO(product), nil
}

func (s *service) Get(ctx context.Context, orgID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindWithBatches(ctx, orgID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return ToDTO(product), nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, page pagination.Params, filters ListFilters) (*ListResult, error) {
	rows, next, err := s.repo.List(ctx, listQuery{OrgID: orgID, Pagination: page, Filters: filters})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return &ListResult{Products: toDTOs(rows), NextCursor: next}, nil
}

func (s *service) Update(ctx context.Context, orgID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = name
	}
	if input.GenericName != nil {
		updates["generic_name"] = *input.GenericName
	}
	if input.Form != nil {
		parsed, err := enums.ParseProductForm(*input.Form)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product form")
		}
		updates["form"] = parsed
	}
	if input.Strength != nil {
		updates["strength"] = *input.Strength
	}
	if input.Barcode != nil {
		updates["barcode"] = *input.Barcode
	}
	if input.UnitPriceCents != nil {
		if *input.UnitPriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
		}
		updates["unit_price_cents"] = *input.UnitPriceCents
	}
	if input.CostCents != nil {
		if *input.CostCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost cannot be negative")
		}
		updates["cost_cents"] = *input.CostCents
	}
	if input.ReorderLevel != nil {
		if *input.ReorderLevel < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder level cannot be negative")
		}
		updates["reorder_level"] = *input.ReorderLevel
	}
	if input.RequiresRx != nil {
		updates["requires_rx"] = *input.RequiresRx
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updatable fields provided")
	}

	matched, err := s.repo.Update(ctx, orgID, productID, updates)
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	if !matched {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.Get(ctx, orgID, productID)
}

func (s *service) Deactivate(ctx context.Context, orgID, productID uuid.UUID) error {
	matched, err := s.repo.Deactivate(ctx, orgID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	if !matched {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) ReceiveStock(ctx context.Context, orgID, productID uuid.UUID, input ReceiveStockInput) (*ProductDTO, error) {
	if strings.TrimSpace(input.BatchNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch number is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(time.Now().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot receive stock that is already expired")
	}

	ok, err := s.branches.ExistsInOrg(ctx, orgID, []uuid.UUID{input.BranchID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check branch")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch does not belong to this organization")
	}

	if _, err := s.repo.FindInOrg(ctx, orgID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	batch := &models.StockBatch{
		ProductID:   productID,
		BranchID:    input.BranchID,
		BatchNumber: strings.TrimSpace(input.BatchNumber),
		Quantity:    input.Quantity,
		ExpiresAt:   input.ExpiresAt,
		ReceivedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock batch")
	}
	return s.Get(ctx, orgID, productID)
}
