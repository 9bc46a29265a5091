package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a menu item sold by a tenant.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TenantID       uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index:idx_products_tenant"`
	Name           string    `gorm:"column:name;type:text;not null"`
	Available      bool      `gorm:"column:available;not null;default:true"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Unit           string    `gorm:"column:unit;type:text;not null;default:'piece'"`
	VATRateBps     *int      `gorm:"column:vat_rate_bps"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
