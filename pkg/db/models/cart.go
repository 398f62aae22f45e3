package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// Cart is an in-progress point-of-sale transaction at a branch. Totals are
// integer cents, recomputed on every mutation and frozen at checkout.
type Cart struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID        `gorm:"column:organization_id;type:uuid;not null;index"`
	BranchID       uuid.UUID        `gorm:"column:branch_id;type:uuid;not null;index"`
	CashierID      uuid.UUID        `gorm:"column:cashier_id;type:uuid;not null"`
	Status         enums.CartStatus `gorm:"column:status;type:text;not null;default:open;index"`
	SubtotalCents  int64            `gorm:"column:subtotal_cents;not null;default:0"`
	TaxCents       int64            `gorm:"column:tax_cents;not null;default:0"`
	TotalCents     int64            `gorm:"column:total_cents;not null;default:0"`
	CheckedOutAt   *time.Time       `gorm:"column:checked_out_at"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	Items []CartItem `gorm:"foreignKey:CartID"`
}

// CartItem is a line on a cart. UnitPriceCents is captured from the product
// at add time so later price edits do not rewrite open carts.
type CartItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductName    string    `gorm:"column:product_name;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
