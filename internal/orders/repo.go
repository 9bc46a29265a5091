package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
)

// Repository manages persistence for orders. Every lookup is keyed by
// (tenant, order) so one tenant can never read another's rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, from, to enums.OrderStatus, stamps map[string]any) (bool, error)
	ListByStatus(ctx context.Context, tenantID uuid.UUID, statuses []enums.OrderStatus, limit int) ([]models.Order, error)
	ListByLocation(ctx context.Context, tenantID, locationID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	RecordCompensationFailure(ctx context.Context, failure *models.CompensationFailure) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Where("tenant_id = ? AND id = ?", tenantID, orderID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus flips the status only while the stored row is still in the
// expected state. Two racing transitions can both pass the state-machine
// check; the guarded UPDATE lets exactly one of them win.
func (r *repository) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, from, to enums.OrderStatus, stamps map[string]any) (bool, error) {
	updates := map[string]any{"status": to, "updated_at": time.Now()}
	for column, value := range stamps {
		updates[column] = value
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListByStatus(ctx context.Context, tenantID uuid.UUID, statuses []enums.OrderStatus, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ?", tenantID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var results []models.Order
	if err := query.Order("created_at DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *repository) ListByLocation(ctx context.Context, tenantID, locationID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error) {
	var results []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND location_id = ? AND status IN ?", tenantID, locationID, statuses).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListStalePending crosses tenant boundaries on purpose: the cron report
// sweeps the whole platform for orders nobody picked up.
func (r *repository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 500
	}
	var results []models.Order
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *repository) RecordCompensationFailure(ctx context.Context, failure *models.CompensationFailure) error {
	return r.db.WithContext(ctx).Create(failure).Error
}
