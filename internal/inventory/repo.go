package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
)

// Repository manages stock items and their movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Transaction(ctx context.Context, fn func(repo Repository) error) error
	GetItem(ctx context.Context, tenantID, productID uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context, tenantID uuid.UUID) ([]models.InventoryItem, error)
	UpsertItem(ctx context.Context, item *models.InventoryItem) error
	TryDecrement(ctx context.Context, tenantID, productID uuid.UUID, qty int) (bool, error)
	Increment(ctx context.Context, tenantID, productID uuid.UUID, qty int) (bool, error)
	CreateMovement(ctx context.Context, movement *models.InventoryMovement) error
	ListMovements(ctx context.Context, tenantID, productID uuid.UUID, limit int) ([]models.InventoryMovement, error)
	SumDeltas(ctx context.Context, tenantID, productID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Transaction runs fn against a tx-bound repository. A quantity update and
// its ledger append must commit or roll back together.
func (r *repository) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) GetItem(ctx context.Context, tenantID, productID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, tenantID uuid.UUID) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("product_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpsertItem(ctx context.Context, item *models.InventoryItem) error {
	// Quantity is deliberately excluded from the update set: stock only moves
	// through ledger movements, never through an item upsert.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"unit", "min_threshold", "reorder_threshold", "max_threshold", "updated_at"}),
		}).
		Create(item).Error
}

// TryDecrement atomically subtracts qty when enough stock exists. The
// conditional UPDATE is the concurrency guard: of two racing decrements that
// would cross zero, exactly one matches the WHERE clause.
func (r *repository) TryDecrement(ctx context.Context, tenantID, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("tenant_id = ? AND product_id = ? AND quantity >= ?", tenantID, productID, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Increment(ctx context.Context, tenantID, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.InventoryMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, tenantID, productID uuid.UUID, limit int) ([]models.InventoryMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if productID != uuid.Nil {
		query = query.Where("product_id = ?", productID)
	}
	var movements []models.InventoryMovement
	if err := query.Order("created_at DESC").Limit(limit).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) SumDeltas(ctx context.Context, tenantID, productID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryMovement{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
