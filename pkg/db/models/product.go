package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// Product is a catalog entry scoped to an organization. Prices are stored as
// integer cents in the organization's currency.
type Product struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID         `gorm:"column:organization_id;type:uuid;not null;index"`
	Name           string            `gorm:"column:name;not null;index"`
	GenericName    *string           `gorm:"column:generic_name"`
	Form           enums.ProductForm `gorm:"column:form;type:text;not null;default:other"`
	Strength       *string           `gorm:"column:strength"`
	Barcode        *string           `gorm:"column:barcode;index"`
	UnitPriceCents int64             `gorm:"column:unit_price_cents;not null;default:0"`
	CostCents      int64             `gorm:"column:cost_cents;not null;default:0"`
	ReorderLevel   int               `gorm:"column:reorder_level;not null;default:0"`
	RequiresRx     bool              `gorm:"column:requires_rx;not null;default:false"`
	IsActive       bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Batches []StockBatch `gorm:"foreignKey:ProductID"`
}

// StockBatch is a lot of a product held at a branch, tracked for expiry.
type StockBatch struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	BranchID    uuid.UUID  `gorm:"column:branch_id;type:uuid;not null;index"`
	BatchNumber string     `gorm:"column:batch_number;not null"`
	Quantity    int        `gorm:"column:quantity;not null;default:0"`
	ExpiresAt   *time.Time `gorm:"column:expires_at;index"`
	ReceivedAt  time.Time  `gorm:"column:received_at;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
