package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
)

// Repository manages persistence for payment records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.PaymentRecord) error
	GetByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*models.PaymentRecord, error)
	Save(ctx context.Context, record *models.PaymentRecord) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) GetByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) Save(ctx context.Context, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}
