package orgs

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

type fakeOrgRepo struct {
	orgs    map[uuid.UUID]*models.Organization
	updates map[string]any
}

func (f *fakeOrgRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	if org, ok := f.orgs[id]; ok {
		return org, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrgRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.updates = updates
	org := f.orgs[id]
	if name, ok := updates["name"].(string); ok {
		org.Name = name
	}
	if currency, ok := updates["currency"].(string); ok {
		org.Currency = currency
	}
	if rate, ok := updates["tax_rate"].(float64); ok {
		org.TaxRate = rate
	}
	return nil
}

func newTestService(t *testing.T, repo *fakeOrgRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Logger: testLogger()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestGetReturnsNotFoundForUnknownOrg(t *testing.T) {
	svc := newTestService(t, &fakeOrgRepo{orgs: map[uuid.UUID]*models.Organization{}})
	if _, err := svc.Get(context.Background(), uuid.New()); pkgerrors.Code(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateNormalizesAndApplies(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeOrgRepo{orgs: map[uuid.UUID]*models.Organization{
		orgID: {ID: orgID, Name: "Mercy Pharmacy", Currency: "USD"},
	}}
	svc := newTestService(t, repo)

	name := "  Mercy Health Pharmacy  "
	currency := "eur"
	rate := 7.5
	dto, err := svc.Update(context.Background(), orgID, UpdateInput{Name: &name, Currency: &currency, TaxRate: &rate})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Name != "Mercy Health Pharmacy" {
		t.Fatalf("name not trimmed: %q", dto.Name)
	}
	if dto.Currency != "EUR" {
		t.Fatalf("currency not uppercased: %q", dto.Currency)
	}
	if dto.TaxRate != 7.5 {
		t.Fatalf("tax rate not applied: %v", dto.TaxRate)
	}
}

func TestUpdateRejectsBadInput(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeOrgRepo{orgs: map[uuid.UUID]*models.Organization{
		orgID: {ID: orgID, Name: "Mercy Pharmacy"},
	}}
	svc := newTestService(t, repo)

	empty := "   "
	badCurrency := "DOLLARS"
	badRate := 101.0

	cases := []struct {
		name  string
		input UpdateInput
	}{
		{"empty name", UpdateInput{Name: &empty}},
		{"bad currency", UpdateInput{Currency: &badCurrency}},
		{"tax rate out of range", UpdateInput{TaxRate: &badRate}},
		{"nothing to update", UpdateInput{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Update(context.Background(), orgID, tc.input); pkgerrors.Code(err) != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if repo.updates != nil {
				t.Fatalf("no update may reach the repo")
			}
		})
	}
}
