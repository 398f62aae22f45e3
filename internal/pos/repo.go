package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// Repository exposes point-of-sale persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a POS repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateCart opens a new cart row.
func (r *Repository) CreateCart(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

// FindCartInOrg loads a cart with its lines, scoped to the tenant.
func (r *Repository) FindCartInOrg(ctx context.Context, orgID, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("organization_id = ? AND id = ?", orgID, cartID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpsertItem adds a line or bumps its quantity when the product is already
// on the cart.
func (r *Repository) UpsertItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":         gorm.Expr("cart_items.quantity + ?", item.Quantity),
				"line_total_cents": gorm.Expr("(cart_items.quantity + ?) * cart_items.unit_price_cents", item.Quantity),
				"updated_at":       gorm.Expr("now()"),
			}),
		}).
		Create(item).Error
}

// SetItemQuantity fixes a line's quantity and recomputes its total. Reports
// whether a row matched.
func (r *Repository) SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		UpdateColumns(map[string]any{
			"quantity":         quantity,
			"line_total_cents": gorm.Expr("? * unit_price_cents", quantity),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RemoveItem deletes a line from the cart.
func (r *Repository) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateTotals writes the recomputed money columns.
func (r *Repository) UpdateTotals(ctx context.Context, cartID uuid.UUID, subtotal, tax, total int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		UpdateColumns(map[string]any{
			"subtotal_cents": subtotal,
			"tax_cents":      tax,
			"total_cents":    total,
		}).Error
}

// CheckoutWithTx flips an open cart to checked_out. The status guard makes a
// double checkout a no-op, reported through the row count.
func (r *Repository) CheckoutWithTx(tx *gorm.DB, cartID uuid.UUID, now time.Time, subtotal, tax, total int64) (int64, error) {
	result := tx.
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusOpen).
		UpdateColumns(map[string]any{
			"status":         enums.CartStatusCheckedOut,
			"checked_out_at": now,
			"subtotal_cents": subtotal,
			"tax_cents":      tax,
			"total_cents":    total,
			"updated_at":     now,
		})
	return result.RowsAffected, result.Error
}

// VoidCart abandons an open cart.
func (r *Repository) VoidCart(ctx context.Context, orgID, cartID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("organization_id = ? AND id = ? AND status = ?", orgID, cartID, enums.CartStatusOpen).
		UpdateColumn("status", enums.CartStatusVoided)
	return result.RowsAffected, result.Error
}

// VoidStaleOpenCarts abandons open carts untouched since the cutoff and
// returns how many were voided.
func (r *Repository) VoidStaleOpenCarts(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("status = ? AND updated_at < ?", enums.CartStatusOpen, cutoff).
		UpdateColumn("status", enums.CartStatusVoided)
	return result.RowsAffected, result.Error
}

// DeductStockWithTx walks the branch's lots for the product in
// first-expiry-first-out order and subtracts the quantity. Lots without an
// expiry date are drawn last.
func (r *Repository) DeductStockWithTx(tx *gorm.DB, branchID, productID uuid.UUID, quantity int) error {
	var batches []models.StockBatch
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND product_id = ? AND quantity > 0", branchID, productID).
		Order("expires_at ASC NULLS LAST").
		Order("received_at ASC").
		Find(&batches).Error
	if err != nil {
		return err
	}

	remaining := quantity
	for _, batch := range batches {
		if remaining == 0 {
			break
		}
		take := batch.Quantity
		if take > remaining {
			take = remaining
		}
		if err := tx.
			Model(&models.StockBatch{}).
			Where("id = ?", batch.ID).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", take)).Error; err != nil {
			return err
		}
		remaining -= take
	}
	if remaining > 0 {
		return fmt.Errorf("%w: product %s short by %d", ErrInsufficientStock, productID, remaining)
	}
	return nil
}
