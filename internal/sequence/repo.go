package sequence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository allocates daily order numbers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Allocate(ctx context.Context, tenantID uuid.UUID, day string, base int64) (int64, error)
	Current(ctx context.Context, tenantID uuid.UUID, day string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sequence repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Allocate claims the next number for (tenant, day) in a single atomic
// statement. The first order of the day lands on base; every later call
// increments the stored counter, so no number is ever issued twice even
// under concurrent inserts.
func (r *repository) Allocate(ctx context.Context, tenantID uuid.UUID, day string, base int64) (int64, error) {
	var number int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO sequence_counters (tenant_id, day, last_number, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (tenant_id, day)
		DO UPDATE SET last_number = sequence_counters.last_number + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING last_number`,
		tenantID, day, base,
	).Scan(&number).Error
	if err != nil {
		return 0, err
	}
	return number, nil
}

// Current reads the last issued number without claiming one. Returns 0 when
// the counter does not exist yet.
func (r *repository) Current(ctx context.Context, tenantID uuid.UUID, day string) (int64, error) {
	var number int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT last_number FROM sequence_counters WHERE tenant_id = ? AND day = ?`,
		tenantID, day,
	).Scan(&number).Error
	if err != nil {
		return 0, err
	}
	return number, nil
}
