package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantLocation is an advertised serving spot plus the truck's last
// reported position.
type TenantLocation struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	TenantID        uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name            string     `gorm:"column:name;type:text;not null"`
	Latitude        float64    `gorm:"column:latitude;not null"`
	Longitude       float64    `gorm:"column:longitude;not null"`
	Active          bool       `gorm:"column:active;not null;default:true"`
	LastReportedLat *float64   `gorm:"column:last_reported_lat"`
	LastReportedLng *float64   `gorm:"column:last_reported_lng"`
	LastReportAt    *time.Time `gorm:"column:last_report_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *TenantLocation) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
