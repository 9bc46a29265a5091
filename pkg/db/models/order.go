package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/enums"
)

// Order is the aggregate root of the fulfillment flow. Monetary totals are
// computed once at creation; only refund bookkeeping on the payment record
// changes afterwards.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	TenantID           uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null;index:idx_orders_tenant"`
	LocationID         *uuid.UUID        `gorm:"column:location_id;type:uuid;index:idx_orders_location"`
	Number             int64             `gorm:"column:number;not null"`
	Status             enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ServiceType        enums.ServiceType `gorm:"column:service_type;type:text;not null;default:'pickup'"`
	CustomerName       string            `gorm:"column:customer_name;type:text;not null"`
	CustomerPhone      string            `gorm:"column:customer_phone;type:text;not null"`
	CustomerEmail      *string           `gorm:"column:customer_email;type:text"`
	SubtotalCents      int               `gorm:"column:subtotal_cents;not null"`
	VATCents           int               `gorm:"column:vat_cents;not null"`
	VATRateBps         int               `gorm:"column:vat_rate_bps;not null"`
	DiscountCents      int               `gorm:"column:discount_cents;not null;default:0"`
	TipCents           int               `gorm:"column:tip_cents;not null;default:0"`
	TotalCents         int               `gorm:"column:total_cents;not null"`
	ScheduledAt        *time.Time        `gorm:"column:scheduled_at"`
	CancellationReason *string           `gorm:"column:cancellation_reason;type:text"`
	ConfirmedAt        *time.Time        `gorm:"column:confirmed_at"`
	PreparingAt        *time.Time        `gorm:"column:preparing_at"`
	ReadyAt            *time.Time        `gorm:"column:ready_at"`
	CompletedAt        *time.Time        `gorm:"column:completed_at"`
	CancelledAt        *time.Time        `gorm:"column:cancelled_at"`
	Items              []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment            *PaymentRecord    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
