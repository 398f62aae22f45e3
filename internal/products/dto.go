package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// ProductDTO is the API-facing shape of a catalog entry.
type ProductDTO struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	GenericName    *string           `json:"generic_name,omitempty"`
	Form           enums.ProductForm `json:"form"`
	Strength       *string           `json:"strength,omitempty"`
	Barcode        *string           `json:"barcode,omitempty"`
	UnitPriceCents int64             `json:"unit_price_cents"`
	CostCents      int64             `json:"cost_cents"`
	ReorderLevel   int               `json:"reorder_level"`
	RequiresRx     bool              `json:"requires_rx"`
	IsActive       bool              `json:"is_active"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`

	Batches []BatchDTO `json:"batches,omitempty"`
}

// BatchDTO is the API-facing shape of a stock lot.
type BatchDTO struct {
	ID          uuid.UUID  `json:"id"`
	BranchID    uuid.UUID  `json:"branch_id"`
	BatchNumber string     `json:"batch_number"`
	Quantity    int        `json:"quantity"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ReceivedAt  time.Time  `json:"received_at"`
}

// CreateInput carries the fields needed to add a catalog entry.
type CreateInput struct {
	Name           string  `json:"name" validate:"required"`
	GenericName    *string `json:"generic_name,omitempty"`
	Form           string  `json:"form,omitempty"`
	Strength       *string `json:"strength,omitempty"`
	Barcode        *string `json:"barcode,omitempty"`
	UnitPriceCents int64   `json:"unit_price_cents" validate:"gte=0"`
	CostCents      int64   `json:"cost_cents" validate:"gte=0"`
	ReorderLevel   int     `json:"reorder_level" validate:"gte=0"`
	RequiresRx     bool    `json:"requires_rx"`
}

// UpdateInput carries the mutable product fields. Nil fields are left
// untouched.
type UpdateInput struct {
	Name           *string `json:"name,omitempty"`
	GenericName    *string `json:"generic_name,omitempty"`
	Form           *string `json:"form,omitempty"`
	Strength       *string `json:"strength,omitempty"`
	Barcode        *string `json:"barcode,omitempty"`
	UnitPriceCents *int64  `json:"unit_price_cents,omitempty"`
	CostCents      *int64  `json:"cost_cents,omitempty"`
	ReorderLevel   *int    `json:"reorder_level,omitempty"`
	RequiresRx     *bool   `json:"requires_rx,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// ListFilters narrows a catalog listing.
type ListFilters struct {
	Query      string
	Form       *enums.ProductForm
	RequiresRx *bool
	ActiveOnly bool
}

// ListResult is one page of the catalog plus the cursor for the next.
type ListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ReceiveStockInput records a delivered lot for a branch.
type ReceiveStockInput struct {
	BranchID    uuid.UUID  `json:"branch_id" validate:"required"`
	BatchNumber string     `json:"batch_number" validate:"required"`
	Quantity    int        `json:"quantity" validate:"gt=0"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ToDTO maps the persistence model to its API shape.
func ToDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:             p.ID,
		Name:           p.Name,
		GenericName:    p.GenericName,
		Form:           p.Form,
		Strength:       p.Strength,
		Barcode:        p.Barcode,
		UnitPriceCents: p.UnitPriceCents,
		CostCents:      p.CostCents,
		ReorderLevel:   p.ReorderLevel,
		RequiresRx:     p.RequiresRx,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	for _, b := range p.Batches {
		dto.Batches = append(dto.Batches, batchToDTO(b))
	}
	return dto
}

func batchToDTO(b models.StockBatch) BatchDTO {
	return BatchDTO{
		ID:          b.ID,
		BranchID:    b.BranchID,
		BatchNumber: b.BatchNumber,
		Quantity:    b.Quantity,
		ExpiresAt:   b.ExpiresAt,
		ReceivedAt:  b.ReceivedAt,
	}
}

func toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *ToDTO(&rows[i]))
	}
	return out
}
