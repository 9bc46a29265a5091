package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/internal/notifications"
	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

type fakeSweeper struct {
	checked     int
	deactivated int
	err         error
}

func (f *fakeSweeper) Sweep(context.Context) (int, int, error) {
	return f.checked, f.deactivated, f.err
}

func TestLocationSweepJob(t *testing.T) {
	job, err := NewLocationSweepJob(LocationSweepJobParams{
		Logger:  testLogger(),
		Sweeper: &fakeSweeper{checked: 3, deactivated: 1},
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "location-sweep" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	job, _ = NewLocationSweepJob(LocationSweepJobParams{
		Logger:  testLogger(),
		Sweeper: &fakeSweeper{err: errors.New("boom")},
	})
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep error surfaced")
	}
}

type fakePurger struct {
	got    time.Duration
	purged int64
}

func (f *fakePurger) PurgeResolved(_ context.Context, retention time.Duration) (int64, error) {
	f.got = retention
	return f.purged, nil
}

func TestAlertRetentionJobDefaultsRetention(t *testing.T) {
	purger := &fakePurger{purged: 4}
	job, err := NewAlertRetentionJob(AlertRetentionJobParams{
		Logger: testLogger(),
		Purger: purger,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if purger.got != defaultAlertRetention {
		t.Fatalf("expected default retention, got %s", purger.got)
	}
}

type fakeStaleLister struct {
	orders []models.Order
}

func (f *fakeStaleLister) ListStalePending(context.Context, time.Duration, int) ([]models.Order, error) {
	return f.orders, nil
}

type recordingNotifier struct {
	dispatched []notifications.DispatchInput
}

func (r *recordingNotifier) Dispatch(_ context.Context, input notifications.DispatchInput) (*models.Notification, error) {
	r.dispatched = append(r.dispatched, input)
	return &models.Notification{}, nil
}

func (r *recordingNotifier) DispatchTx(ctx context.Context, _ *gorm.DB, input notifications.DispatchInput) (*models.Notification, error) {
	return r.Dispatch(ctx, input)
}

func (r *recordingNotifier) List(context.Context, uuid.UUID, int) ([]models.Notification, error) {
	return nil, nil
}

func (r *recordingNotifier) MarkRead(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func TestStaleOrderReportGroupsByTenant(t *testing.T) {
	tenantA, tenantB := uuid.New(), uuid.New()
	lister := &fakeStaleLister{orders: []models.Order{
		{TenantID: tenantA}, {TenantID: tenantA}, {TenantID: tenantB},
	}}
	notifier := &recordingNotifier{}

	job, err := NewStaleOrderReportJob(StaleOrderReportJobParams{
		Logger:   testLogger(),
		Orders:   lister,
		Notifier: notifier,
		Window:   time.Hour,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(notifier.dispatched) != 2 {
		t.Fatalf("expected one report per tenant, got %d", len(notifier.dispatched))
	}
	counts := map[uuid.UUID]string{}
	for _, input := range notifier.dispatched {
		counts[input.TenantID] = input.Title
	}
	if counts[tenantA] != "2 orders waiting longer than 1h0m0s" {
		t.Fatalf("unexpected title for tenant A: %q", counts[tenantA])
	}
}
