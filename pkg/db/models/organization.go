package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents the canonical tenant model: one pharmacy business
// owning branches, staff, invites, and a catalog.
type Organization struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string     `gorm:"column:name;not null"`
	LogoURL    *string    `gorm:"column:logo_url"`
	Currency   string     `gorm:"column:currency;not null;default:'USD'"`
	TaxRate    float64    `gorm:"column:tax_rate;type:numeric(5,2);not null;default:0"`
	OwnerID    uuid.UUID  `gorm:"column:owner_id;type:uuid;not null"`
	LastActive *time.Time `gorm:"column:last_active_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
