package locations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
)

// Repository manages persistence for tenant serving locations.
type Repository interface {
	Create(ctx context.Context, location *models.TenantLocation) error
	Get(ctx context.Context, tenantID, locationID uuid.UUID) (*models.TenantLocation, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]models.TenantLocation, error)
	ListActive(ctx context.Context, limit int) ([]models.TenantLocation, error)
	ReportPosition(ctx context.Context, tenantID, locationID uuid.UUID, lat, lng float64, at time.Time) (int64, error)
	Deactivate(ctx context.Context, tenantID, locationID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a locations repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, location *models.TenantLocation) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *repository) Get(ctx context.Context, tenantID, locationID uuid.UUID) (*models.TenantLocation, error) {
	var location models.TenantLocation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, locationID).
		First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID) ([]models.TenantLocation, error) {
	var locations []models.TenantLocation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// ListActive crosses tenants; the compliance sweep covers the whole platform.
func (r *repository) ListActive(ctx context.Context, limit int) ([]models.TenantLocation, error) {
	if limit <= 0 {
		limit = 500
	}
	var locations []models.TenantLocation
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Limit(limit).
		Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *repository) ReportPosition(ctx context.Context, tenantID, locationID uuid.UUID, lat, lng float64, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TenantLocation{}).
		Where("tenant_id = ? AND id = ?", tenantID, locationID).
		Updates(map[string]any{
			"last_reported_lat": lat,
			"last_reported_lng": lng,
			"last_report_at":    at,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) Deactivate(ctx context.Context, tenantID, locationID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TenantLocation{}).
		Where("tenant_id = ? AND id = ? AND active = ?", tenantID, locationID, true).
		Update("active", false)
	return result.RowsAffected, result.Error
}
