package escalation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
)

// Repository manages persistence for escalation alerts.
type Repository interface {
	InsertSteps(ctx context.Context, alerts []models.EscalationAlert) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.EscalationAlert, error)
	MarkFired(ctx context.Context, alertID uuid.UUID, at time.Time) error
	CancelRemaining(ctx context.Context, orderID uuid.UUID, at time.Time) (int64, error)
	Ack(ctx context.Context, tenantID, alertID uuid.UUID) (int64, error)
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.EscalationAlert, error)
	PurgeResolved(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an escalation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertSteps(ctx context.Context, alerts []models.EscalationAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&alerts).Error
}

// ListDue returns pending checks whose deadline has passed. The single
// monitor instance holds a redis lease, so a plain select is safe.
func (r *repository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.EscalationAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	var alerts []models.EscalationAlert
	if err := r.db.WithContext(ctx).
		Where("next_check_at <= ? AND fired_at IS NULL AND cancelled_at IS NULL", now).
		Order("next_check_at ASC").
		Limit(limit).
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repository) MarkFired(ctx context.Context, alertID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.EscalationAlert{}).
		Where("id = ? AND fired_at IS NULL AND cancelled_at IS NULL", alertID).
		Update("fired_at", at).Error
}

func (r *repository) CancelRemaining(ctx context.Context, orderID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.EscalationAlert{}).
		Where("order_id = ? AND fired_at IS NULL AND cancelled_at IS NULL", orderID).
		Update("cancelled_at", at)
	return result.RowsAffected, result.Error
}

func (r *repository) Ack(ctx context.Context, tenantID, alertID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.EscalationAlert{}).
		Where("tenant_id = ? AND id = ? AND fired_at IS NOT NULL AND acknowledged = ?", tenantID, alertID, false).
		Update("acknowledged", true)
	return result.RowsAffected, result.Error
}

func (r *repository) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.EscalationAlert, error) {
	var alerts []models.EscalationAlert
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("step ASC").
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// PurgeResolved deletes fired-and-acknowledged or cancelled alerts older
// than the cutoff. Live checks are never purged.
func (r *repository) PurgeResolved(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ? AND (cancelled_at IS NOT NULL OR (fired_at IS NOT NULL AND acknowledged = ?))", cutoff, true).
		Delete(&models.EscalationAlert{})
	return result.RowsAffected, result.Error
}
