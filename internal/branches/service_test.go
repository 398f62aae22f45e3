package branches

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/pharmhq/pharmacy-backend/pkg/errors"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type fakeBranchRepo struct {
	branches map[uuid.UUID]*models.Branch
}

func newFakeBranchRepo() *fakeBranchRepo {
	return &fakeBranchRepo{branches: map[uuid.UUID]*models.Branch{}}
}

func (f *fakeBranchRepo) Create(ctx context.Context, branch *models.Branch) error {
	branch.ID = uuid.New()
	f.branches[branch.ID] = branch
	return nil
}

func (f *fakeBranchRepo) FindInOrg(ctx context.Context, orgID, branchID uuid.UUID) (*models.Branch, error) {
	if b, ok := f.branches[branchID]; ok && b.OrganizationID == orgID {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBranchRepo) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Branch, error) {
	var out []models.Branch
	for _, b := range f.branches {
		if b.OrganizationID == orgID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBranchRepo) CountByOrg(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	for _, b := range f.branches {
		if b.OrganizationID == orgID {
			count++
		}
	}
	return count, nil
}

func (f *fakeBranchRepo) Update(ctx context.Context, orgID, branchID uuid.UUID, updates map[string]any) (bool, error) {
	b, ok := f.branches[branchID]
	if !ok || b.OrganizationID != orgID {
		return false, nil
	}
	if name, ok := updates["name"].(string); ok {
		b.Name = name
	}
	if address, ok := updates["address"].(string); ok {
		b.Address = address
	}
	if phone, ok := updates["phone"].(string); ok {
		b.Phone = phone
	}
	return true, nil
}

func (f *fakeBranchRepo) Delete(ctx context.Context, orgID, branchID uuid.UUID) (bool, error) {
	b, ok := f.branches[branchID]
	if !ok || b.OrganizationID != orgID {
		return false, nil
	}
	delete(f.branches, branchID)
	return true, nil
}

func newTestService(t *testing.T, repo *fakeBranchRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Logger: testLogger()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateTrimsAndPersists(t *testing.T) {
	repo := newFakeBranchRepo()
	svc := newTestService(t, repo)
	orgID := uuid.New()

	dto, err := svc.Create(context.Background(), orgID, CreateInput{
		Name:    "  Downtown  ",
		Address: "12 Main St",
		Phone:   "555-0100",
		License: "PH-100",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Name != "Downtown" {
		t.Fatalf("name not trimmed: %q", dto.Name)
	}
	if len(repo.branches) != 1 {
		t.Fatalf("branch not persisted")
	}
}

func TestCreateRequiresNameAndAddress(t *testing.T) {
	svc := newTestService(t, newFakeBranchRepo())
	orgID := uuid.New()

	if _, err := svc.Create(context.Background(), orgID, CreateInput{Address: "12 Main St"}); pkgerrors.Code(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}
	if _, err := svc.Create(context.Background(), orgID, CreateInput{Name: "Downtown"}); pkgerrors.Code(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing address, got %v", err)
	}
}

func TestBranchesAreScopedToTheOrganization(t *testing.T) {
	repo := newFakeBranchRepo()
	svc := newTestService(t, repo)
	orgID := uuid.New()
	otherOrg := uuid.New()

	dto, err := svc.Create(context.Background(), orgID, CreateInput{Name: "Downtown", Address: "12 Main St"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), otherOrg, dto.ID); pkgerrors.Code(err) != pkgerrors.CodeNotFound {
		t.Fatalf("cross-tenant get must be a miss, got %v", err)
	}
	name := "Renamed"
	if _, err := svc.Update(context.Background(), otherOrg, dto.ID, UpdateInput{Name: &name}); pkgerrors.Code(err) != pkgerrors.CodeNotFound {
		t.Fatalf("cross-tenant update must be a miss, got %v", err)
	}
}

func TestDeleteKeepsLastBranch(t *testing.T) {
	repo := newFakeBranchRepo()
	svc := newTestService(t, repo)
	orgID := uuid.New()

	first, _ := svc.Create(context.Background(), orgID, CreateInput{Name: "Downtown", Address: "12 Main St"})
	second, _ := svc.Create(context.Background(), orgID, CreateInput{Name: "Uptown", Address: "99 High St"})

	if err := svc.Delete(context.Background(), orgID, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), orgID, first.ID); pkgerrors.Code(err) != pkgerrors.CodeValidation {
		t.Fatalf("last branch must not be deletable, got %v", err)
	}
}
