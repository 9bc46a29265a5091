package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/types"
)

// OrderLineItem is one product position on an order.
type OrderLineItem struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Name           string           `gorm:"column:name;type:text;not null"`
	Qty            int              `gorm:"column:qty;not null"`
	UnitPriceCents int              `gorm:"column:unit_price_cents;not null"`
	Modifiers      types.Modifiers  `gorm:"column:modifiers;type:jsonb;serializer:json"`
	SubtotalCents  int              `gorm:"column:subtotal_cents;not null"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderLineItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
