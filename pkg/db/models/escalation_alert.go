package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/enums"
)

// EscalationAlert is one scheduled watchdog check for an order. Arming an
// order inserts one row per delay step; the monitor claims rows whose
// NextCheckAt has passed. Persisted so armed checks survive restarts.
type EscalationAlert struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	TenantID      uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index:idx_escalations_order"`
	WatchedStatus enums.OrderStatus   `gorm:"column:watched_status;type:text;not null"`
	Step          int                 `gorm:"column:step;not null"`
	Severity      enums.AlertSeverity `gorm:"column:severity;type:text;not null"`
	NextCheckAt   time.Time           `gorm:"column:next_check_at;not null;index"`
	FiredAt       *time.Time          `gorm:"column:fired_at"`
	CancelledAt   *time.Time          `gorm:"column:cancelled_at"`
	Acknowledged  bool                `gorm:"column:acknowledged;not null;default:false"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (a *EscalationAlert) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
