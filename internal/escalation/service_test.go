package escalation

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/internal/notifications"
	"github.com/truckbite/truckbite-backend/pkg/config"
	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:esctest?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.EscalationAlert{}, &models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		conn.Exec("DELETE FROM escalation_alerts")
		conn.Exec("DELETE FROM notifications")
	})
	return conn
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func newTestService(t *testing.T, conn *gorm.DB, delays []time.Duration) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), config.EscalationConfig{
		CheckDelays: delays,
		ClaimBatch:  50,
	}, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestArmCreatesOneCheckPerStep(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, []time.Duration{5 * time.Minute, 10 * time.Minute, 15 * time.Minute})
	ctx := context.Background()
	tenantID, orderID := uuid.New(), uuid.New()

	if err := svc.Arm(ctx, tenantID, orderID, enums.OrderStatusPending); err != nil {
		t.Fatalf("arm: %v", err)
	}

	alerts, err := svc.ListByOrder(ctx, tenantID, orderID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(alerts))
	}
	wantSeverities := []enums.AlertSeverity{
		enums.AlertSeverityNotice, enums.AlertSeverityWarning, enums.AlertSeverityCritical,
	}
	for i, alert := range alerts {
		if alert.Step != i || alert.Severity != wantSeverities[i] {
			t.Fatalf("step %d: got step=%d severity=%s", i, alert.Step, alert.Severity)
		}
		if alert.WatchedStatus != enums.OrderStatusPending {
			t.Fatalf("expected watched status pending, got %s", alert.WatchedStatus)
		}
		if i > 0 && !alerts[i].NextCheckAt.After(alerts[i-1].NextCheckAt) {
			t.Fatal("expected strictly increasing check times")
		}
	}
}

func TestDisarmCancelsPendingChecksAndIsIdempotent(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, []time.Duration{5 * time.Minute})
	ctx := context.Background()
	tenantID, orderID := uuid.New(), uuid.New()

	if err := svc.Arm(ctx, tenantID, orderID, enums.OrderStatusPending); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if err := svc.Disarm(ctx, orderID); err != nil {
		t.Fatalf("disarm: %v", err)
	}

	alerts, _ := svc.ListByOrder(ctx, tenantID, orderID)
	if alerts[0].CancelledAt == nil {
		t.Fatal("expected check cancelled")
	}

	// Repeat disarm touches nothing and does not error.
	if err := svc.Disarm(ctx, orderID); err != nil {
		t.Fatalf("repeat disarm: %v", err)
	}
}

func TestAckLifecycle(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, []time.Duration{time.Minute})
	ctx := context.Background()
	tenantID, orderID := uuid.New(), uuid.New()

	if err := svc.Arm(ctx, tenantID, orderID, enums.OrderStatusPending); err != nil {
		t.Fatalf("arm: %v", err)
	}
	alerts, _ := svc.ListByOrder(ctx, tenantID, orderID)
	alertID := alerts[0].ID

	// Unfired alerts cannot be acknowledged.
	err := svc.Ack(ctx, tenantID, alertID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for unfired alert, got %v", err)
	}

	conn.Model(&models.EscalationAlert{}).Where("id = ?", alertID).Update("fired_at", time.Now())

	if err := svc.Ack(ctx, tenantID, alertID); err != nil {
		t.Fatalf("ack fired alert: %v", err)
	}
	if err := svc.Ack(ctx, tenantID, alertID); pkgerrors.As(err) == nil {
		t.Fatal("expected repeat ack rejected")
	}

	// A different tenant cannot acknowledge it.
	conn.Model(&models.EscalationAlert{}).Where("id = ?", alertID).Update("acknowledged", false)
	if err := svc.Ack(ctx, uuid.New(), alertID); pkgerrors.As(err) == nil {
		t.Fatal("expected cross-tenant ack rejected")
	}
}

func TestPurgeResolvedKeepsLiveChecks(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, []time.Duration{time.Minute})
	ctx := context.Background()
	tenantID := uuid.New()

	liveOrder, doneOrder := uuid.New(), uuid.New()
	if err := svc.Arm(ctx, tenantID, liveOrder, enums.OrderStatusPending); err != nil {
		t.Fatalf("arm live: %v", err)
	}
	if err := svc.Arm(ctx, tenantID, doneOrder, enums.OrderStatusPending); err != nil {
		t.Fatalf("arm done: %v", err)
	}
	if err := svc.Disarm(ctx, doneOrder); err != nil {
		t.Fatalf("disarm: %v", err)
	}
	// Age both past the retention cutoff.
	conn.Model(&models.EscalationAlert{}).Where("tenant_id = ?", tenantID).
		Update("created_at", time.Now().Add(-48*time.Hour))

	purged, err := svc.PurgeResolved(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}

	remaining, _ := svc.ListByOrder(ctx, tenantID, liveOrder)
	if len(remaining) != 1 {
		t.Fatalf("expected live check kept, got %d", len(remaining))
	}
}

type fakeOrderGetter struct {
	orders map[uuid.UUID]*models.Order
}

func (f *fakeOrderGetter) Get(_ context.Context, _, orderID uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

type fakeLocker struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLocker) SetNX(_ context.Context, _ string, _ any, _ time.Duration) (bool, error) {
	if f.held {
		return false, nil
	}
	f.acquired++
	return true, nil
}

func (f *fakeLocker) Del(_ context.Context, _ ...string) error {
	f.released++
	return nil
}

func (f *fakeLocker) LockKey(name string) string {
	return "tb:lock:" + name
}

func newTestMonitor(t *testing.T, conn *gorm.DB, getter *fakeOrderGetter, locker Locker) *Monitor {
	t.Helper()
	notifySvc, err := notifications.NewService(notifications.NewRepository(conn), testLogger())
	if err != nil {
		t.Fatalf("notifications service: %v", err)
	}
	monitor, err := NewMonitor(NewRepository(conn), getter, notifySvc, locker, config.EscalationConfig{
		CheckDelays: []time.Duration{-time.Minute},
		ClaimBatch:  50,
	}, testLogger(), nil)
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	return monitor
}

func TestMonitorFiresWhenOrderIsStillStuck(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, []time.Duration{-time.Minute})
	ctx := context.Background()
	tenantID, orderID := uuid.New(), uuid.New()

	if err := svc.Arm(ctx, tenantID, orderID, enums.OrderStatusPending); err != nil {
		t.Fatalf("arm: %v", err)
	}
	getter := &fakeOrderGetter{orders: map[uuid.UUID]*models.Order{
		orderID: {ID: orderID, TenantID: tenantID, Number: 104, Status: enums.OrderStatusPending, CreatedAt: time.Now().Add(-10 * time.Minute)},
	}}
	monitor := newTestMonitor(t, conn, getter, nil)

	fired, cancelled, err := monitor.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if fired != 1 || cancelled != 0 {
		t.Fatalf("expected 1 fired, got fired=%d cancelled=%d", fired, cancelled)
	}

	alerts, _ := svc.ListByOrder(ctx, tenantID, orderID)
	if alerts[0].FiredAt == nil {
		t.Fatal("expected alert marked fired")
	}
	var count int64
	conn.Model(&models.Notification{}).
		Where("tenant_id = ? AND type = ?", tenantID, enums.NotificationTypeEscalation).
		Count(&count)
	if count != 1 {
		t.Fatalf("expected one escalation notification, got %d", count)
	}

	// A second pass finds nothing due.
	fired, cancelled, err = monitor.RunOnce(ctx)
	if err != nil || fired != 0 || cancelled != 0 {
		t.Fatalf("expected idle second pass, got fired=%d cancelled=%d err=%v", fired, cancelled, err)
	}
}

func TestMonitorCancelsWhenOrderMovedOn(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, []time.Duration{-time.Minute})
	ctx := context.Background()
	tenantID, orderID := uuid.New(), uuid.New()

	if err := svc.Arm(ctx, tenantID, orderID, enums.OrderStatusPending); err != nil {
		t.Fatalf("arm: %v", err)
	}
	getter := &fakeOrderGetter{orders: map[uuid.UUID]*models.Order{
		orderID: {ID: orderID, TenantID: tenantID, Number: 104, Status: enums.OrderStatusConfirmed},
	}}
	monitor := newTestMonitor(t, conn, getter, nil)

	fired, cancelled, err := monitor.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if fired != 0 || cancelled != 1 {
		t.Fatalf("expected 1 cancelled, got fired=%d cancelled=%d", fired, cancelled)
	}

	alerts, _ := svc.ListByOrder(ctx, tenantID, orderID)
	if alerts[0].CancelledAt == nil {
		t.Fatal("expected alert cancelled")
	}
	var count int64
	conn.Model(&models.Notification{}).Where("tenant_id = ?", tenantID).Count(&count)
	if count != 0 {
		t.Fatalf("expected no notification, got %d", count)
	}
}

func TestMonitorCancelsWhenOrderVanished(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, []time.Duration{-time.Minute})
	ctx := context.Background()
	tenantID, orderID := uuid.New(), uuid.New()

	if err := svc.Arm(ctx, tenantID, orderID, enums.OrderStatusPending); err != nil {
		t.Fatalf("arm: %v", err)
	}
	monitor := newTestMonitor(t, conn, &fakeOrderGetter{orders: map[uuid.UUID]*models.Order{}}, nil)

	fired, cancelled, err := monitor.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if fired != 0 || cancelled != 1 {
		t.Fatalf("expected vanished order cancelled, got fired=%d cancelled=%d", fired, cancelled)
	}
}

func TestMonitorTickSkipsWhenLeaseHeld(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, []time.Duration{-time.Minute})
	ctx := context.Background()
	tenantID, orderID := uuid.New(), uuid.New()

	if err := svc.Arm(ctx, tenantID, orderID, enums.OrderStatusPending); err != nil {
		t.Fatalf("arm: %v", err)
	}
	locker := &fakeLocker{held: true}
	monitor := newTestMonitor(t, conn, &fakeOrderGetter{orders: map[uuid.UUID]*models.Order{}}, locker)

	if err := monitor.tick(ctx, time.Second); err != nil {
		t.Fatalf("tick: %v", err)
	}
	alerts, _ := svc.ListByOrder(ctx, tenantID, orderID)
	if alerts[0].CancelledAt != nil || alerts[0].FiredAt != nil {
		t.Fatal("expected no processing while another instance holds the lease")
	}

	locker.held = false
	if err := monitor.tick(ctx, time.Second); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if locker.acquired != 1 || locker.released != 1 {
		t.Fatalf("expected lease acquired and released once, got %d/%d", locker.acquired, locker.released)
	}
}
