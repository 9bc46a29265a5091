package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks current stock per (tenant, product). Quantity never
// goes below zero; attempted deficits are recorded on the movement log.
type InventoryItem struct {
	TenantID         uuid.UUID `gorm:"column:tenant_id;type:uuid;primaryKey"`
	ProductID        uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Quantity         int       `gorm:"column:quantity;not null;default:0"`
	Unit             string    `gorm:"column:unit;type:text;not null;default:'piece'"`
	MinThreshold     int       `gorm:"column:min_threshold;not null;default:0"`
	ReorderThreshold int       `gorm:"column:reorder_threshold;not null;default:0"`
	MaxThreshold     int       `gorm:"column:max_threshold;not null;default:0"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
