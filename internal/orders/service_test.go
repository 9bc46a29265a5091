package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/internal/catalog"
	"github.com/truckbite/truckbite-backend/internal/inventory"
	"github.com/truckbite/truckbite-backend/internal/notifications"
	"github.com/truckbite/truckbite-backend/internal/payments"
	"github.com/truckbite/truckbite-backend/internal/sequence"
	"github.com/truckbite/truckbite-backend/internal/tenants"
	"github.com/truckbite/truckbite-backend/pkg/config"
	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := g.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

type fakePayments struct {
	records    map[uuid.UUID]*models.PaymentRecord
	failCreate bool
	captures   []uuid.UUID
	cancels    []uuid.UUID
	refunds    []uuid.UUID
}

func newFakePayments() *fakePayments {
	return &fakePayments{records: map[uuid.UUID]*models.PaymentRecord{}}
}

func (f *fakePayments) CreateIntent(_ context.Context, input payments.CreateIntentInput) (*models.PaymentRecord, error) {
	if f.failCreate {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "processor unavailable")
	}
	record := &models.PaymentRecord{
		OrderID:     input.OrderID,
		TenantID:    input.TenantID,
		IntentRef:   "pay_" + input.OrderID.String(),
		Status:      enums.PaymentStatusAuthorized,
		AmountCents: input.AmountCents - input.TipCents,
		TipCents:    input.TipCents,
	}
	f.records[input.OrderID] = record
	return record, nil
}

func (f *fakePayments) AddTip(_ context.Context, _, orderID uuid.UUID, tipCents int) (*models.PaymentRecord, error) {
	record := f.records[orderID]
	record.TipCents = tipCents
	return record, nil
}

func (f *fakePayments) Capture(_ context.Context, _, orderID uuid.UUID) (*models.PaymentRecord, error) {
	record, ok := f.records[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment record not found")
	}
	record.Status = enums.PaymentStatusCaptured
	f.captures = append(f.captures, orderID)
	return record, nil
}

func (f *fakePayments) CancelIntent(_ context.Context, _, orderID uuid.UUID, _ string) (*models.PaymentRecord, error) {
	record, ok := f.records[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment record not found")
	}
	record.Status = enums.PaymentStatusFailed
	f.cancels = append(f.cancels, orderID)
	return record, nil
}

func (f *fakePayments) Refund(_ context.Context, input payments.RefundInput) (*models.PaymentRecord, error) {
	record, ok := f.records[input.OrderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment record not found")
	}
	record.RefundedCents = record.AmountCents + record.TipCents
	record.Status = enums.PaymentStatusRefunded
	f.refunds = append(f.refunds, input.OrderID)
	return record, nil
}

func (f *fakePayments) GetByOrder(_ context.Context, _, orderID uuid.UUID) (*models.PaymentRecord, error) {
	record, ok := f.records[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment record not found")
	}
	return record, nil
}

type fakeEscalator struct {
	armed    []uuid.UUID
	disarmed []uuid.UUID
}

func (f *fakeEscalator) Arm(_ context.Context, _, orderID uuid.UUID, _ enums.OrderStatus) error {
	f.armed = append(f.armed, orderID)
	return nil
}

func (f *fakeEscalator) Disarm(_ context.Context, orderID uuid.UUID) error {
	f.disarmed = append(f.disarmed, orderID)
	return nil
}

type testEnv struct {
	svc       Service
	conn      *gorm.DB
	tenant    *models.Tenant
	product   *models.Product
	payments  *fakePayments
	escalator *fakeEscalator
	inventory inventory.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:orderstest?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Tenant{}, &models.Product{}, &models.Order{}, &models.OrderLineItem{},
		&models.SequenceCounter{}, &models.InventoryItem{}, &models.InventoryMovement{},
		&models.Notification{}, &models.CompensationFailure{}, &models.PaymentRecord{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		for _, table := range []string{
			"orders", "order_line_items", "sequence_counters", "inventory_items",
			"inventory_movements", "notifications", "compensation_failures", "payment_records", "products", "tenants",
		} {
			conn.Exec("DELETE FROM " + table)
		}
	})

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	ordersCfg := config.OrdersConfig{
		SequenceBase:       100,
		SequenceRetries:    3,
		MaxItems:           5,
		MaxQtyPerItem:      10,
		MaxScheduleAdvance: 72 * time.Hour,
	}

	tenantSvc, err := tenants.NewService(tenants.NewRepository(conn))
	if err != nil {
		t.Fatalf("tenants service: %v", err)
	}
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	notifySvc, err := notifications.NewService(notifications.NewRepository(conn), logg)
	if err != nil {
		t.Fatalf("notifications service: %v", err)
	}
	inventorySvc, err := inventory.NewService(inventory.NewRepository(conn), nil, logg)
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	sequenceSvc, err := sequence.NewService(sequence.NewRepository(conn), ordersCfg, logg, nil)
	if err != nil {
		t.Fatalf("sequence service: %v", err)
	}

	pay := newFakePayments()
	esc := &fakeEscalator{}

	svc, err := NewService(Deps{
		Repo:        NewRepository(conn),
		Tx:          gormTxRunner{db: conn},
		Tenants:     tenantSvc,
		Catalog:     catalogSvc,
		Inventory:   inventorySvc,
		Sequence:    sequenceSvc,
		Payments:    pay,
		Notifier:    notifySvc,
		Escalations: esc,
		OrdersCfg:   ordersCfg,
		FeesCfg:     config.FeesConfig{TrialWindow: 720 * time.Hour},
		Logger:      logg,
	})
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}

	ctx := context.Background()
	tenant, err := tenantSvc.CreateTenant(ctx, tenants.TenantInput{Name: "Bao Truck", PhonePattern: `^\+49`})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	product, err := catalogSvc.CreateProduct(ctx, catalog.ProductInput{
		TenantID:       tenant.ID,
		Name:           "Pork Bao",
		UnitPriceCents: 500,
		Available:      true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := inventorySvc.UpsertItem(ctx, inventory.ItemInput{
		TenantID:  tenant.ID,
		ProductID: product.ID,
	}); err != nil {
		t.Fatalf("upsert item: %v", err)
	}
	if _, err := inventorySvc.RecordMovement(ctx, inventory.MovementInput{
		TenantID:  tenant.ID,
		ProductID: product.ID,
		Delta:     20,
		Type:      enums.MovementTypePurchase,
	}); err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	return &testEnv{
		svc:       svc,
		conn:      conn,
		tenant:    tenant,
		product:   product,
		payments:  pay,
		escalator: esc,
		inventory: inventorySvc,
	}
}

func (e *testEnv) createOrder(t *testing.T, mutate func(*CreateOrderInput)) *models.Order {
	t.Helper()
	input := CreateOrderInput{
		TenantID:      e.tenant.ID,
		ServiceType:   enums.ServiceTypePickup,
		CustomerName:  "Mara",
		CustomerPhone: "+4915112345678",
		Items:         []LineInput{{ProductID: e.product.ID, Qty: 2}},
		TipCents:      100,
	}
	if mutate != nil {
		mutate(&input)
	}
	order, err := e.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func (e *testEnv) stockQty(t *testing.T) int {
	t.Helper()
	view, err := e.inventory.GetStock(context.Background(), e.tenant.ID, e.product.ID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	return view.Item.Quantity
}

func TestCreateOrderHappyPath(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, nil)

	if order.Number != 100 {
		t.Fatalf("expected first number 100, got %d", order.Number)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	// 2 x 500 = 1000 subtotal, 7% pickup VAT = 70, tip 100
	if order.SubtotalCents != 1000 || order.VATCents != 70 || order.TotalCents != 1170 {
		t.Fatalf("unexpected totals: %d/%d/%d", order.SubtotalCents, order.VATCents, order.TotalCents)
	}
	if order.VATRateBps != 700 {
		t.Fatalf("expected pickup rate 700 bps, got %d", order.VATRateBps)
	}
	if got := env.stockQty(t); got != 18 {
		t.Fatalf("expected stock 18 after reservation, got %d", got)
	}
	if len(env.escalator.armed) != 1 || env.escalator.armed[0] != order.ID {
		t.Fatalf("expected escalation armed for order, got %v", env.escalator.armed)
	}

	loaded, err := env.svc.Get(context.Background(), env.tenant.ID, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].Name != "Pork Bao" {
		t.Fatalf("expected snapshotted line item, got %+v", loaded.Items)
	}
}

func TestCreateOrderTableServiceUsesTableVAT(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, func(input *CreateOrderInput) {
		input.ServiceType = enums.ServiceTypeTable
		input.TipCents = 0
	})
	// 19% on 1000
	if order.VATRateBps != 1900 || order.VATCents != 190 {
		t.Fatalf("expected table VAT 1900bps/190c, got %d/%d", order.VATRateBps, order.VATCents)
	}
}

func TestCreateOrderRejectsClosedTenant(t *testing.T) {
	env := newTestEnv(t)
	if err := env.conn.Model(&models.Tenant{}).Where("id = ?", env.tenant.ID).
		Update("is_open", false).Error; err != nil {
		t.Fatalf("close tenant: %v", err)
	}

	_, err := env.svc.Create(context.Background(), CreateOrderInput{
		TenantID:      env.tenant.ID,
		ServiceType:   enums.ServiceTypePickup,
		CustomerName:  "Mara",
		CustomerPhone: "+4915112345678",
		Items:         []LineInput{{ProductID: env.product.ID, Qty: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestCreateOrderRejectsMismatchedPhone(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Create(context.Background(), CreateOrderInput{
		TenantID:      env.tenant.ID,
		ServiceType:   enums.ServiceTypePickup,
		CustomerName:  "Mara",
		CustomerPhone: "+33123456789",
		Items:         []LineInput{{ProductID: env.product.ID, Qty: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateOrderRejectsUnavailableProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	catalogSvc, _ := catalog.NewService(catalog.NewRepository(env.conn))
	if err := catalogSvc.SetAvailability(ctx, env.tenant.ID, env.product.ID, false); err != nil {
		t.Fatalf("set availability: %v", err)
	}

	_, err := env.svc.Create(ctx, CreateOrderInput{
		TenantID:      env.tenant.ID,
		ServiceType:   enums.ServiceTypePickup,
		CustomerName:  "Mara",
		CustomerPhone: "+4915112345678",
		Items:         []LineInput{{ProductID: env.product.ID, Qty: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateOrderInsufficientStockRollsBackEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, CreateOrderInput{
		TenantID:      env.tenant.ID,
		ServiceType:   enums.ServiceTypePickup,
		CustomerName:  "Mara",
		CustomerPhone: "+4915112345678",
		Items:         []LineInput{{ProductID: env.product.ID, Qty: 10}, {ProductID: env.product.ID, Qty: 10}, {ProductID: env.product.ID, Qty: 5}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	if got := env.stockQty(t); got != 20 {
		t.Fatalf("expected stock untouched at 20, got %d", got)
	}
	var orderCount int64
	env.conn.Model(&models.Order{}).Where("tenant_id = ?", env.tenant.ID).Count(&orderCount)
	if orderCount != 0 {
		t.Fatalf("expected no order rows, found %d", orderCount)
	}

	// The rolled-back claim leaves the next number at the base.
	order := env.createOrder(t, nil)
	if order.Number != 100 {
		t.Fatalf("expected 100 after rollback, got %d", order.Number)
	}
}

func TestCreateOrderScheduleWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := CreateOrderInput{
		TenantID:      env.tenant.ID,
		ServiceType:   enums.ServiceTypePickup,
		CustomerName:  "Mara",
		CustomerPhone: "+4915112345678",
		Items:         []LineInput{{ProductID: env.product.ID, Qty: 1}},
	}

	past := time.Now().Add(-time.Hour)
	input := base
	input.ScheduledAt = &past
	if _, err := env.svc.Create(ctx, input); err == nil {
		t.Fatal("expected past schedule rejection")
	}

	tooFar := time.Now().Add(100 * time.Hour)
	input = base
	input.ScheduledAt = &tooFar
	if _, err := env.svc.Create(ctx, input); err == nil {
		t.Fatal("expected over-advance schedule rejection")
	}

	fine := time.Now().Add(24 * time.Hour)
	input = base
	input.ScheduledAt = &fine
	if _, err := env.svc.Create(ctx, input); err != nil {
		t.Fatalf("expected in-window schedule accepted: %v", err)
	}
}

func TestCreateOrderItemLimits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, CreateOrderInput{
		TenantID:      env.tenant.ID,
		ServiceType:   enums.ServiceTypePickup,
		CustomerName:  "Mara",
		CustomerPhone: "+4915112345678",
		Items:         []LineInput{{ProductID: env.product.ID, Qty: 11}},
	})
	if err == nil {
		t.Fatal("expected per-item qty rejection")
	}

	_, err = env.svc.Create(ctx, CreateOrderInput{
		TenantID:      env.tenant.ID,
		ServiceType:   enums.ServiceTypePickup,
		CustomerName:  "Mara",
		CustomerPhone: "+4915112345678",
		Items:         []LineInput{},
	})
	if err == nil {
		t.Fatal("expected empty order rejection")
	}
}

func TestCreateOrderPaymentFailureLeavesOrderPending(t *testing.T) {
	env := newTestEnv(t)
	env.payments.failCreate = true

	order := env.createOrder(t, func(input *CreateOrderInput) {
		input.PaymentSourceID = "cnon:card-nonce-ok"
	})
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.Payment != nil {
		t.Fatal("expected no payment reference after processor failure")
	}
	if got := env.stockQty(t); got != 18 {
		t.Fatalf("expected reservation kept, stock %d", got)
	}
}

func TestTransitionStampsTimestamps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.createOrder(t, nil)

	steps := []enums.OrderStatus{
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
		enums.OrderStatusReady,
		enums.OrderStatusCompleted,
	}
	for _, target := range steps {
		var err error
		order, err = env.svc.Transition(ctx, TransitionInput{
			TenantID: env.tenant.ID,
			OrderID:  order.ID,
			Target:   target,
		})
		if err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
	}

	if order.ConfirmedAt == nil || order.PreparingAt == nil || order.ReadyAt == nil || order.CompletedAt == nil {
		t.Fatalf("expected all transition timestamps stamped: %+v", order)
	}

	// Ready fired a customer notification.
	var count int64
	env.conn.Model(&models.Notification{}).
		Where("tenant_id = ? AND type = ?", env.tenant.ID, enums.NotificationTypeOrderReady).
		Count(&count)
	if count != 1 {
		t.Fatalf("expected one ready notification, got %d", count)
	}
	if len(env.escalator.disarmed) == 0 {
		t.Fatal("expected watchdog disarmed on completion")
	}
}

func TestTransitionRejectsIllegalEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.createOrder(t, nil)

	_, err := env.svc.Transition(ctx, TransitionInput{
		TenantID: env.tenant.ID,
		OrderID:  order.ID,
		Target:   enums.OrderStatusReady,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT for pending->ready, got %v", err)
	}
}

func TestCancelRestocksAndRefunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.createOrder(t, func(input *CreateOrderInput) {
		input.PaymentSourceID = "cnon:card-nonce-ok"
	})
	// Simulate the intent having settled before cancellation.
	env.payments.records[order.ID].Status = enums.PaymentStatusCaptured

	cancelled, err := env.svc.Transition(ctx, TransitionInput{
		TenantID: env.tenant.ID,
		OrderID:  order.ID,
		Target:   enums.OrderStatusCancelled,
		Reason:   "customer no-show",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("expected cancelled with timestamp, got %+v", cancelled)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != "customer no-show" {
		t.Fatalf("expected reason recorded, got %v", cancelled.CancellationReason)
	}
	if got := env.stockQty(t); got != 20 {
		t.Fatalf("expected stock restored to 20, got %d", got)
	}
	if len(env.payments.refunds) != 1 {
		t.Fatalf("expected one refund, got %d", len(env.payments.refunds))
	}
	if len(env.escalator.disarmed) != 1 {
		t.Fatalf("expected watchdog disarmed, got %d", len(env.escalator.disarmed))
	}
}

func TestCancelVoidsUnsettledIntent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.createOrder(t, func(input *CreateOrderInput) {
		input.PaymentSourceID = "cnon:card-nonce-ok"
	})

	if _, err := env.svc.Transition(ctx, TransitionInput{
		TenantID: env.tenant.ID,
		OrderID:  order.ID,
		Target:   enums.OrderStatusCancelled,
		Reason:   "changed mind",
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(env.payments.cancels) != 1 || len(env.payments.refunds) != 0 {
		t.Fatalf("expected void not refund, got cancels=%d refunds=%d",
			len(env.payments.cancels), len(env.payments.refunds))
	}
}

func TestCancelRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, nil)

	_, err := env.svc.Transition(context.Background(), TransitionInput{
		TenantID: env.tenant.ID,
		OrderID:  order.ID,
		Target:   enums.OrderStatusCancelled,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCancelReleaseFailureRecordsCompensation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.createOrder(t, nil)

	// Break restocking by removing the inventory item entirely.
	env.conn.Exec("DELETE FROM inventory_items")

	cancelled, err := env.svc.Transition(ctx, TransitionInput{
		TenantID: env.tenant.ID,
		OrderID:  order.ID,
		Target:   enums.OrderStatusCancelled,
		Reason:   "customer no-show",
	})
	if err != nil {
		t.Fatalf("cancel should succeed despite restock failure: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	var failures []models.CompensationFailure
	env.conn.Where("order_id = ?", order.ID).Find(&failures)
	if len(failures) != 1 || failures[0].Reason != "inventory release failed" {
		t.Fatalf("expected one compensation failure, got %+v", failures)
	}
}

func TestCancelForLocationSparesReadyOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	locationID := uuid.New()

	pendingOrder := env.createOrder(t, func(input *CreateOrderInput) {
		input.LocationID = &locationID
	})
	readyOrder := env.createOrder(t, func(input *CreateOrderInput) {
		input.LocationID = &locationID
	})
	for _, target := range []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusPreparing, enums.OrderStatusReady} {
		if _, err := env.svc.Transition(ctx, TransitionInput{
			TenantID: env.tenant.ID, OrderID: readyOrder.ID, Target: target,
		}); err != nil {
			t.Fatalf("advance ready order: %v", err)
		}
	}

	count, err := env.svc.CancelForLocation(ctx, env.tenant.ID, locationID, "location_mismatch")
	if err != nil {
		t.Fatalf("cancel for location: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one cancellation, got %d", count)
	}

	got, _ := env.svc.Get(ctx, env.tenant.ID, pendingOrder.ID)
	if got.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected pending order cancelled, got %s", got.Status)
	}
	got, _ = env.svc.Get(ctx, env.tenant.ID, readyOrder.ID)
	if got.Status != enums.OrderStatusReady {
		t.Fatalf("expected ready order untouched, got %s", got.Status)
	}
}

func TestListStalePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := env.createOrder(t, nil)

	// Age the order past the stale window.
	env.conn.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("created_at", time.Now().Add(-2*time.Hour))

	stale, err := env.svc.ListStalePending(ctx, time.Hour, 10)
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != order.ID {
		t.Fatalf("expected the aged order, got %+v", stale)
	}
}
