package tenants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
)

// Repository manages persistence for tenants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tenant *models.Tenant) error
	Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	SetOpen(ctx context.Context, tenantID uuid.UUID, open bool) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tenants repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *repository) Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).
		Where("id = ?", tenantID).
		First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) SetOpen(ctx context.Context, tenantID uuid.UUID, open bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ?", tenantID).
		Update("is_open", open)
	return res.RowsAffected, res.Error
}
