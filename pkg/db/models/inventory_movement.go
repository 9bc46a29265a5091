package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/enums"
)

// InventoryMovement is an append-only ledger entry. It is never mutated or
// deleted; summing deltas per (tenant, product) reproduces the item quantity.
type InventoryMovement struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  uuid.UUID          `gorm:"column:tenant_id;type:uuid;not null;index:idx_movements_tenant_product"`
	ProductID uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index:idx_movements_tenant_product"`
	Delta     int                `gorm:"column:delta;not null"`
	Type      enums.MovementType `gorm:"column:type;type:text;not null"`
	OrderID   *uuid.UUID         `gorm:"column:order_id;type:uuid"`
	Note      *string            `gorm:"column:note;type:text"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (m *InventoryMovement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
