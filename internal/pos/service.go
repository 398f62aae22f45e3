package pos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

// ErrInsufficientStock marks a checkout that asked for more units than the
// branch holds.
var ErrInsufficientStock = errors.New("insufficient stock")

// Service exposes the point-of-sale cart lifecycle.
type Service interface {
	Open(ctx context.Context, orgID, cashierID uuid.UUID, input OpenCartInput) (*CartDTO, error)
	Get(ctx context.Context, orgID, cartID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, orgID, cartID uuid.UUID, input AddItemInput) (*CartDTO, error)
	SetQuantity(ctx context.Context, orgID, cartID uuid.UUID, input SetQuantityInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, orgID, cartID, productID uuid.UUID) (*CartDTO, error)
	Checkout(ctx context.Context, orgID, cartID uuid.UUID) (*CartDTO, error)
	Void(ctx context.Context, orgID, cartID uuid.UUID) error
}

type posRepository interface {
	CreateCart(ctx context.Context, cart *models.Cart) error
	FindCartInOrg(ctx context.Context, orgID, cartID uuid.UUID) (*models.Cart, error)
	UpsertItem(ctx context.Context, item *models.CartItem) error
	SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (bool, error)
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error)
	UpdateTotals(ctx context.Context, cartID uuid.UUID, subtotal, tax, total int64) error
	CheckoutWithTx(tx *gorm.DB, cartID uuid.UUID, now time.Time, subtotal, tax, total int64) (int64, error)
	VoidCart(ctx context.Context, orgID, cartID uuid.UUID) (int64, error)
	DeductStockWithTx(tx *gorm.DB, branchID, productID uuid.UUID, quantity int) error
}

type posProductLookup interface {
	FindInOrg(ctx context.Context, orgID, productID uuid.UUID) (*models.Product, error)
}

type posOrgLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type posBranchChecker interface {
	ExistsInOrg(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (bool, error)
}

type posTxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the service dependencies.
type ServiceParams struct {
	Repo     posRepository
	Products posProductLookup
	Orgs     posOrgLookup
	Branches posBranchChecker
	TxRunner posTxRunner
	Logger   *logger.Logger
}

type service struct {
	repo     posRepository
	products posProductLookup
	orgs     posOrgLookup
	branches posBranchChecker
	tx       posTxRunner
	logg     *logger.Logger
	now      func() time.Time
}

// NewService validates dependencies and builds the POS service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("pos repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup is required")
	}
	if params.Orgs == nil {
		return nil, fmt.Errorf("organization lookup is required")
	}
	if params.Branches == nil {
		return nil, fmt.Errorf("branch checker is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		orgs:     params.Orgs,
		branches: params.Branches,
		tx:       params.TxRunner,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

func (s *service) Open(ctx context.Context, orgID, cashierID uuid.UUID, input OpenCartInput) (*CartDTO, error) {
	ok, err := s.branches.ExistsInOrg(ctx, orgID, []uuid.UUID{input.BranchID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check branch")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch does not belong to this organization")
	}

	cart := &models.Cart{
		OrganizationID: orgID,
		BranchID:       input.BranchID,
		CashierID:      cashierID,
		Status:         enums.CartStatusOpen,
	}
	if err := s.repo.CreateCart(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open cart")
	}
	return ToDTO(cart), nil
}

func (s *service) Get(ctx context.Context, orgID, cartID uuid.UUID) (*CartDTO, error) {
	cart, err := s.loadCart(ctx, orgID, cartID)
	if err != nil {
		return nil, err
	}
	return ToDTO(cart), nil
}

func (s *service) AddItem(ctx context.Context, orgID, cartID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, err := s.loadOpenCart(ctx, orgID, cartID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindInOrg(ctx, orgID, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer sold")
	}

	item := &models.CartItem{
		CartID:         cart.ID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		Quantity:       input.Quantity,
		UnitPriceCents: product.UnitPriceCents,
		LineTotalCents: int64(input.Quantity) * product.UnitPriceCents,
	}
	if err := s.repo.UpsertItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	return s.refreshTotals(ctx, orgID, cartID)
}

func (s *service) SetQuantity(ctx context.Context, orgID, cartID uuid.UUID, input SetQuantityInput) (*CartDTO, error) {
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.Quantity == 0 {
		return s.RemoveItem(ctx, orgID, cartID, input.ProductID)
	}

	if _, err := s.loadOpenCart(ctx, orgID, cartID); err != nil {
		return nil, err
	}
	matched, err := s.repo.SetItemQuantity(ctx, cartID, input.ProductID, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set quantity")
	}
	if !matched {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not on this cart")
	}
	return s.refreshTotals(ctx, orgID, cartID)
}

func (s *service) RemoveItem(ctx context.Context, orgID, cartID, productID uuid.UUID) (*CartDTO, error) {
	if _, err := s.loadOpenCart(ctx, orgID, cartID); err != nil {
		return nil, err
	}
	matched, err := s.repo.RemoveItem(ctx, cartID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !matched {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not on this cart")
	}
	return s.refreshTotals(ctx, orgID, cartID)
}

func (s *service) Checkout(ctx context.Context, orgID, cartID uuid.UUID) (*CartDTO, error) {
	cart, err := s.loadOpenCart(ctx, orgID, cartID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot check out an empty cart")
	}

	subtotal, tax, total, err := s.computeTotals(ctx, orgID, cart)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, item := range cart.Items {
			if err := s.repo.DeductStockWithTx(tx, cart.BranchID, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, ErrInsufficientStock) {
					return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "checkout")
				}
				return fmt.Errorf("deduct stock: %w", err)
			}
		}
		rows, err := s.repo.CheckoutWithTx(tx, cart.ID, now, subtotal, tax, total)
		if err != nil {
			return fmt.Errorf("checkout cart: %w", err)
		}
		if rows == 0 {
			// Lost the race with another terminal; leave stock untouched.
			return pkgerrors.New(pkgerrors.CodeConflict, "cart has already been closed")
		}
		return nil
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout transaction")
	}

	return s.Get(ctx, orgID, cartID)
}

func (s *service) Void(ctx context.Context, orgID, cartID uuid.UUID) error {
	rows, err := s.repo.VoidCart(ctx, orgID, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void cart")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "cart is not open")
	}
	return nil
}

func (s *service) loadCart(ctx context.Context, orgID, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindCartInOrg(ctx, orgID, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) loadOpenCart(ctx context.Context, orgID, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.loadCart(ctx, orgID, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != enums.CartStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is not open")
	}
	return cart, nil
}

// refreshTotals recomputes the money columns after a line mutation.
func (s *service) refreshTotals(ctx context.Context, orgID, cartID uuid.UUID) (*CartDTO, error) {
	cart, err := s.loadCart(ctx, orgID, cartID)
	if err != nil {
		return nil, err
	}
	subtotal, tax, total, err := s.computeTotals(ctx, orgID, cart)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTotals(ctx, cartID, subtotal, tax, total); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update totals")
	}
	cart.SubtotalCents = subtotal
	cart.TaxCents = tax
	cart.TotalCents = total
	return ToDTO(cart), nil
}

// computeTotals sums the lines and applies the organization's tax rate using
// decimal arithmetic so half-cent cases round the same way everywhere.
func (s *service) computeTotals(ctx context.Context, orgID uuid.UUID, cart *models.Cart) (int64, int64, int64, error) {
	var subtotal int64
	for _, item := range cart.Items {
		subtotal += item.LineTotalCents
	}

	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return 0, 0, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}

	tax := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromFloat(org.TaxRate)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()

	return subtotal, tax, subtotal + tax, nil
}
