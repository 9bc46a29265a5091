package models

import (
	"time"

	"github.com/google/uuid"
)

// SequenceCounter holds the last issued order number for one tenant on one
// calendar day. Created lazily, incremented atomically, never decremented.
type SequenceCounter struct {
	TenantID   uuid.UUID `gorm:"column:tenant_id;type:uuid;primaryKey"`
	Day        string    `gorm:"column:day;type:text;primaryKey"`
	LastNumber int64     `gorm:"column:last_number;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
