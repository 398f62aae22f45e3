package pos

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmhq/pharmacy-backend/pkg/db/models"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
)

// CartDTO is the API-facing shape of a point-of-sale cart.
type CartDTO struct {
	ID            uuid.UUID        `json:"id"`
	BranchID      uuid.UUID        `json:"branch_id"`
	CashierID     uuid.UUID        `json:"cashier_id"`
	Status        enums.CartStatus `json:"status"`
	SubtotalCents int64            `json:"subtotal_cents"`
	TaxCents      int64            `json:"tax_cents"`
	TotalCents    int64            `json:"total_cents"`
	CheckedOutAt  *time.Time       `json:"checked_out_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`

	Items []CartItemDTO `json:"items"`
}

// CartItemDTO is one line on a cart.
type CartItemDTO struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// OpenCartInput starts a sale at a branch.
type OpenCartInput struct {
	BranchID uuid.UUID `json:"branch_id" validate:"required"`
}

// AddItemInput puts a product on the cart.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

// SetQuantityInput fixes a line's quantity; zero removes the line.
type SetQuantityInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=0"`
}

// ToDTO maps the persistence model to its API shape.
func ToDTO(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	dto := &CartDTO{
		ID:            cart.ID,
		BranchID:      cart.BranchID,
		CashierID:     cart.CashierID,
		Status:        cart.Status,
		SubtotalCents: cart.SubtotalCents,
		TaxCents:      cart.TaxCents,
		TotalCents:    cart.TotalCents,
		CheckedOutAt:  cart.CheckedOutAt,
		CreatedAt:     cart.CreatedAt,
		Items:         make([]CartItemDTO, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return dto
}
