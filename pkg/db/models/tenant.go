package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is one food-truck operator and the unit of data isolation.
type Tenant struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name           string     `gorm:"column:name;type:text;not null"`
	IsOpen         bool       `gorm:"column:is_open;not null;default:true"`
	PhonePattern   string     `gorm:"column:phone_pattern;type:text;not null;default:''"`
	Currency       string     `gorm:"column:currency;type:text;not null;default:'EUR'"`
	VATPickupBps   int        `gorm:"column:vat_pickup_bps;not null;default:700"`
	VATTableBps    int        `gorm:"column:vat_table_bps;not null;default:1900"`
	TrialStartedAt *time.Time `gorm:"column:trial_started_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Tenant) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
