package products

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
	"github.com/pharmhq/pharmacy-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type fakeProductRepo struct {
	products map[uuid.UUID]*models.Product
	batches  []*models.StockBatch
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uuid.UUID]*models.Product{}}
}

func (f *fakeProductRepo) Create(ctx context.Context, product *models.Product) error {
	product.ID = uuid.New()
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) FindInOrg(ctx context.Context, orgID, productID uuid.UUID) (*models.Product, error) {
	if p, ok := f.products[productID]; ok && p.OrganizationID == orgID {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) FindWithBatches(ctx context.Context, orgID, productID uuid.UUID) (*models.Product, error) {
	p, err := f.FindInOrg(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}
	copied := *p
	copied.Batches = nil
	for _, b := range f.batches {
		if b.ProductID == productID {
			copied.Batches = append(copied.Batches, *b)
		}
	}
	return &copied, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, orgID, productID uuid.UUID, updates map[string]any) (bool, error) {
	p, ok := f.products[productID]
	if !ok || p.OrganizationID != orgID {
		return false, nil
	}
	if name, ok := updates["name"].(string); ok {
		p.Name = name
	}
	if price, ok := updates["unit_price_cents"].(int64); ok {
		p.UnitPriceCents = price
	}
	if active, ok := updates["is_active"].(bool); ok {
		p.IsActive = active
	}
	return true, nil
}

func (f *fakeProductRepo) Deactivate(ctx context.Context, orgID, productID uuid.UUID) (bool, error) {
	return f.Update(ctx, orgID, productID, map[string]any{"is_active": false})
}

func (f *fakeProductRepo) List(ctx context.Context, query listQuery) ([]models.Product, string, error) {
	var rows []models.Product
	for _, p := range f.products {
		if p.OrganizationID != query.OrgID {
			continue
		}
		if query.Filters.ActiveOnly && !p.IsActive {
			continue
		}
		rows = append(rows, *p)
	}
	return rows, "", nil
}

func (f *fakeProductRepo) CreateBatch(ctx context.Context, batch *models.StockBatch) error {
	batch.ID = uuid.New()
	f.batches = append(f.batches, batch)
	return nil
}

type fakeBranchChecker struct {
	known map[uuid.UUID]bool
}

func (f *fakeBranchChecker) ExistsInOrg(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (bool, error) {
	for _, id := range ids {
		if !f.known[id] {
			return false, nil
		}
	}
	return true, nil
}

func newTestService(t *testing.T, repo *fakeProductRepo, branches *fakeBranchChecker) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Branches: branches, Logger: testLogger()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateDefaultsFormAndActivates(t *testing.T) {
	repo := newFakeProductRepo()
	svc := newTestService(t, repo, &fakeBranchChecker{})
	orgID := uuid.New()

	dto, err := svc.Create(context.Background(), orgID, CreateInput{
		Name:           "Paracetamol 500mg",
		UnitPriceCents: 250,
		CostCents:      120,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Form != enums.ProductFormOther {
		t.Fatalf("expected default form, got %s", dto.Form)
	}
	if !dto.IsActive {
		t.Fatalf("new products must start active")
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	repo := newFakeProductRepo()
	svc := newTestService(t, repo, &fakeBranchChecker{})
	orgID := uuid.New()

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing name", CreateInput{UnitPriceCents: 100}},
		{"negative price", CreateInput{Name: "Ibuprofen", UnitPriceCents: -1}},
		{"unknown form", CreateInput{Name: "Ibuprofen", Form: "gas"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), orgID, tc.input); pkgerrors.Code(err) != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(repo.products) != 0 {
		t.Fatalf("no product may be created from invalid input")
	}
}

func TestReceiveStockValidatesBranchOwnership(t *testing.T) {
	repo := newFakeProductRepo()
	branchID := uuid.New()
	svc := newTestService(t, repo, &fakeBranchChecker{known: map[uuid.UUID]bool{branchID: true}})
	orgID := uuid.New()

	dto, err := svc.Create(context.Background(), orgID, CreateInput{Name: "Amoxicillin", UnitPriceCents: 900})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	expiry := time.Now().UTC().Add(180 * 24 * time.Hour)
	withStock, err := svc.ReceiveStock(context.Background(), orgID, dto.ID, ReceiveStockInput{
		BranchID:    branchID,
		BatchNumber: "LOT-42",
		Quantity:    30,
		ExpiresAt:   &expiry,
	})
	if err != nil {
		t.Fatalf("receive stock: %v", err)
	}
	if len(withStock.Batches) != 1 || withStock.Batches[0].Quantity != 30 {
		t.Fatalf("batch not recorded: %+v", withStock.Batches)
	}

	if _, err := svc.ReceiveStock(context.Background(), orgID, dto.ID, ReceiveStockInput{
		BranchID:    uuid.New(),
		BatchNumber: "LOT-43",
		Quantity:    10,
	}); pkgerrors.Code(err) != pkgerrors.CodeValidation {
		t.Fatalf("foreign branch must be rejected, got %v", err)
	}
}

func TestReceiveStockRejectsExpiredLots(t *testing.T) {
	repo := newFakeProductRepo()
	branchID := uuid.New()
	svc := newTestService(t, repo, &fakeBranchChecker{known: map[uuid.UUID]bool{branchID: true}})
	orgID := uuid.New()

	dto, err := svc.Create(context.Background(), orgID, CreateInput{Name: "Amoxicillin", UnitPriceCents: 900})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	past := time.Now().UTC().Add(-time.Hour)
	if _, err := svc.ReceiveStock(context.Background(), orgID, dto.ID, ReceiveStockInput{
		BranchID:    branchID,
		BatchNumber: "LOT-44",
		Quantity:    5,
		ExpiresAt:   &past,
	}); pkgerrors.Code(err) != pkgerrors.CodeValidation {
		t.Fatalf("expired lot must be rejected, got %v", err)
	}
}

func TestUpdateAndDeactivateAreTenantScoped(t *testing.T) {
	repo := newFakeProductRepo()
	svc := newTestService(t, repo, &fakeBranchChecker{})
	orgID := uuid.New()

	dto, err := svc.Create(context.Background(), orgID, CreateInput{Name: "Cetirizine", UnitPriceCents: 300})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	price := int64(350)
	updated, err := svc.Update(context.Background(), orgID, dto.ID, UpdateInput{UnitPriceCents: &price})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.UnitPriceCents != 350 {
		t.Fatalf("price not updated: %d", updated.UnitPriceCents)
	}

	otherOrg := uuid.New()
	if _, err := svc.Update(context.Background(), otherOrg, dto.ID, UpdateInput{UnitPriceCents: &price}); pkgerrors.Code(err) != pkgerrors.CodeNotFound {
		t.Fatalf("cross-tenant update must miss, got %v", err)
	}

	if err := svc.Deactivate(context.Background(), orgID, dto.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, err := svc.Get(context.Background(), orgID, dto.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsActive {
		t.Fatalf("product should be inactive after deactivation")
	}

	page, err := svc.List(context.Background(), orgID, pagination.Params{}, ListFilters{ActiveOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Products) != 0 {
		t.Fatalf("inactive products must be excluded from active listings")
	}
}
