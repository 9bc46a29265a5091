package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
)

// Repository manages persistence for tenant products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	Get(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]models.Product, error)
	SetAvailability(ctx context.Context, tenantID, productID uuid.UUID, available bool) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) Get(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) SetAvailability(ctx context.Context, tenantID, productID uuid.UUID, available bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		Update("available", available)
	return res.RowsAffected, res.Error
}
