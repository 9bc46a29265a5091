package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/enums"
)

// Notification stores a dispatch trigger; delivery transport is external.
type Notification struct {
	ID        uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  uuid.UUID                  `gorm:"column:tenant_id;type:uuid;not null;index"`
	Recipient string                     `gorm:"column:recipient;type:text;not null"`
	Channel   enums.NotificationChannel  `gorm:"column:channel;type:text;not null"`
	Type      enums.NotificationType     `gorm:"column:type;type:text;not null"`
	Priority  enums.NotificationPriority `gorm:"column:priority;type:text;not null;default:'normal'"`
	Title     string                     `gorm:"column:title;type:text;not null"`
	Body      string                     `gorm:"column:body;type:text;not null"`
	ReadAt    *time.Time                 `gorm:"column:read_at"`
	CreatedAt time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
