package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/pagination"
)

// Repository wires together catalog and stock persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindInOrg loads the product without associations, scoped to the tenant.
func (r *Repository) FindInOrg(ctx context.Context, orgID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, productID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindWithBatches loads the product and its stock batches, newest lots first.
func (r *Repository) FindWithBatches(ctx context.Context, orgID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Batches", func(db *gorm.DB) *gorm.DB {
			return db.Order("received_at DESC")
		}).
		Where("organization_id = ? AND id = ?", orgID, productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update applies the column map to a product within the organization and
// reports whether a row matched.
func (r *Repository) Update(ctx context.Context, orgID, productID uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("organization_id = ? AND id = ?", orgID, productID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Deactivate retires a product from the catalog without deleting history.
func (r *Repository) Deactivate(ctx context.Context, orgID, productID uuid.UUID) (bool, error) {
	return r.Update(ctx, orgID, productID, map[string]any{"is_active": false})
}

type listQuery struct {
	OrgID      uuid.UUID
	Pagination pagination.Params
	Filters    ListFilters
}

// List returns a cursor page of products for the organization.
func (r *Repository) List(ctx context.Context, query listQuery) ([]models.Product, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("organization_id = ?", query.OrgID)

	filter := query.Filters
	if filter.Form != nil {
		qb = qb.Where("form = ?", *filter.Form)
	}
	if filter.RequiresRx != nil {
		qb = qb.Where("requires_rx = ?", *filter.RequiresRx)
	}
	if filter.ActiveOnly {
		qb = qb.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(COALESCE(generic_name, '')) LIKE ? OR barcode = ?)",
			pattern, pattern, search)
	}

	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// FindByBarcode resolves a barcode scan to a product in the organization.
func (r *Repository) FindByBarcode(ctx context.Context, orgID uuid.UUID, barcode string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND barcode = ?", orgID, barcode).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateBatch records a received stock lot.
func (r *Repository) CreateBatch(ctx context.Context, batch *models.StockBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// AdjustBatchQuantity changes a lot's on-hand quantity by delta, refusing to
// go negative. Reports whether a row matched.
func (r *Repository) AdjustBatchQuantity(ctx context.Context, batchID uuid.UUID, delta int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StockBatch{}).
		Where("id = ? AND quantity + ? >= 0", batchID, delta).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// StockOnHand sums the product's quantity across the branches visible to the
// caller. A nil branch filter sums every branch.
func (r *Repository) StockOnHand(ctx context.Context, productID uuid.UUID, branchIDs []uuid.UUID) (int, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.StockBatch{}).
		Where("product_id = ?", productID)
	if len(branchIDs) > 0 {
		qb = qb.Where("branch_id IN ?", branchIDs)
	}
	var total *int
	if err := qb.Select("SUM(quantity)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// ExpiringBatches lists lots expiring before the deadline, soonest first.
func (r *Repository) ExpiringBatches(ctx context.Context, orgID uuid.UUID, before time.Time) ([]models.StockBatch, error) {
	var rows []models.StockBatch
	err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = stock_batches.product_id").
		Where("products.organization_id = ?", orgID).
		Where("stock_batches.quantity > 0").
		Where("stock_batches.expires_at IS NOT NULL AND stock_batches.expires_at < ?", before).
		Order("stock_batches.expires_at ASC").
		Find(&rows).Error
	return rows, err
}
