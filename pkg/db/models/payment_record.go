package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/enums"
)

// PaymentRecord tracks the payment intent attached to an order. Owned by the
// order aggregate; the payment adapter reads and writes it on its behalf.
type PaymentRecord struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	TenantID         uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index"`
	IntentRef        string              `gorm:"column:intent_ref;type:text;not null"`
	Status           enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AmountCents      int                 `gorm:"column:amount_cents;not null"`
	TipCents         int                 `gorm:"column:tip_cents;not null;default:0"`
	PlatformFeeCents int                 `gorm:"column:platform_fee_cents;not null;default:0"`
	RefundedCents    int                 `gorm:"column:refunded_cents;not null;default:0"`
	FailureReason    *string             `gorm:"column:failure_reason;type:text"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PaymentRecord) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
