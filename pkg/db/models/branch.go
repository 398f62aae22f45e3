package models

import (
	"time"

	"github.com/google/uuid"
)

// Branch is a physical pharmacy outlet belonging to one organization.
type Branch struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	Address        string    `gorm:"column:address;not null"`
	Phone          string    `gorm:"column:phone;not null"`
	License        string    `gorm:"column:license;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
