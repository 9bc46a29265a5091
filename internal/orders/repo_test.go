package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
)

func setupOrdersRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:ordersrepotest?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Order{}, &models.OrderLineItem{}, &models.PaymentRecord{}, &models.CompensationFailure{},
	))

	t.Cleanup(func() {
		for _, table := range []string{"orders", "order_line_items", "payment_records", "compensation_failures"} {
			conn.Exec("DELETE FROM " + table)
		}
	})

	return conn
}

func seedOrder(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, number int64, status enums.OrderStatus, locationID *uuid.UUID) *models.Order {
	t.Helper()
	order := &models.Order{
		TenantID:      tenantID,
		LocationID:    locationID,
		Number:        number,
		Status:        status,
		ServiceType:   enums.ServiceTypePickup,
		CustomerName:  "Walk-in",
		CustomerPhone: "+4915112345678",
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}

func TestRepositoryListByStatusFiltersAndScopes(t *testing.T) {
	conn := setupOrdersRepoDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	tenantA, tenantB := uuid.New(), uuid.New()
	seedOrder(t, conn, tenantA, 100, enums.OrderStatusPending, nil)
	seedOrder(t, conn, tenantA, 101, enums.OrderStatusReady, nil)
	seedOrder(t, conn, tenantB, 100, enums.OrderStatusPending, nil)

	pending, err := repo.ListByStatus(ctx, tenantA, []enums.OrderStatus{enums.OrderStatusPending}, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(100), pending[0].Number)
	assert.Equal(t, tenantA, pending[0].TenantID)

	all, err := repo.ListByStatus(ctx, tenantA, nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepositoryListByLocation(t *testing.T) {
	conn := setupOrdersRepoDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	tenantID := uuid.New()
	locA, locB := uuid.New(), uuid.New()
	seedOrder(t, conn, tenantID, 100, enums.OrderStatusPending, &locA)
	seedOrder(t, conn, tenantID, 101, enums.OrderStatusConfirmed, &locA)
	seedOrder(t, conn, tenantID, 102, enums.OrderStatusPending, &locB)

	live := []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed}
	orders, err := repo.ListByLocation(ctx, tenantID, locA, live)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, order := range orders {
		assert.Equal(t, locA, *order.LocationID)
	}
}

func TestRepositoryUpdateStatusIsGuarded(t *testing.T) {
	conn := setupOrdersRepoDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	tenantID := uuid.New()
	order := seedOrder(t, conn, tenantID, 100, enums.OrderStatusPending, nil)
	now := time.Now()

	ok, err := repo.UpdateStatus(ctx, tenantID, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled,
		map[string]any{"cancelled_at": now, "cancellation_reason": "customer no-show"})
	require.NoError(t, err)
	require.True(t, ok)

	// A racer that also read pending loses: the guard no longer matches and
	// the committed cancellation survives.
	ok, err = repo.UpdateStatus(ctx, tenantID, order.ID, enums.OrderStatusPending, enums.OrderStatusConfirmed,
		map[string]any{"confirmed_at": now})
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.Get(ctx, tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
	assert.Nil(t, reloaded.ConfirmedAt)
	require.NotNil(t, reloaded.CancellationReason)
	assert.Equal(t, "customer no-show", *reloaded.CancellationReason)
}

func TestRepositoryListStalePendingCrossesTenants(t *testing.T) {
	conn := setupOrdersRepoDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	tenantA, tenantB := uuid.New(), uuid.New()
	stale := seedOrder(t, conn, tenantA, 100, enums.OrderStatusPending, nil)
	seedOrder(t, conn, tenantB, 100, enums.OrderStatusPending, nil)
	seedOrder(t, conn, tenantA, 101, enums.OrderStatusReady, nil)

	aged := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, conn.Model(&models.Order{}).
		Where("id = ?", stale.ID).
		Update("created_at", aged).Error)

	orders, err := repo.ListStalePending(ctx, time.Now().Add(-time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, stale.ID, orders[0].ID)
}

func TestRepositoryRecordCompensationFailure(t *testing.T) {
	conn := setupOrdersRepoDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	tenantID, orderID := uuid.New(), uuid.New()
	err := repo.RecordCompensationFailure(ctx, &models.CompensationFailure{
		TenantID: tenantID,
		OrderID:  &orderID,
		Reason:   "inventory release failed",
		Payload:  []byte(`{"lines":1}`),
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.CompensationFailure{}).
		Where("order_id = ?", orderID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
