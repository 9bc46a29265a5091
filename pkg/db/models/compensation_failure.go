package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompensationFailure is the durable trail written when an automatic
// compensating action (inventory release after a failed order persist)
// itself fails. Rows are resolved by manual reconciliation.
type CompensationFailure struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	TenantID   uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index"`
	OrderID    *uuid.UUID      `gorm:"column:order_id;type:uuid"`
	Reason     string          `gorm:"column:reason;type:text;not null"`
	Payload    json.RawMessage `gorm:"column:payload;type:jsonb"`
	ResolvedAt *time.Time      `gorm:"column:resolved_at"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (c *CompensationFailure) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
