package notifications

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:notiftest?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		conn.Exec("DELETE FROM notifications")
	})

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(NewRepository(conn), logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestDispatchPersistsTrigger(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	tenant := uuid.New()

	created, err := svc.Dispatch(ctx, DispatchInput{
		TenantID:  tenant,
		Recipient: "operator",
		Channel:   enums.NotificationChannelInApp,
		Type:      enums.NotificationTypeOrderReady,
		Title:     "Order #104 ready",
		Body:      "Order #104 is ready for pickup",
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected notification id to be assigned")
	}
	if created.Priority != enums.NotificationPriorityNormal {
		t.Fatalf("expected default priority normal, got %s", created.Priority)
	}

	listed, err := svc.List(ctx, tenant, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(listed))
	}
}

func TestDispatchValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input DispatchInput
	}{
		{"missing tenant", DispatchInput{Channel: enums.NotificationChannelPush, Type: enums.NotificationTypeEscalation, Title: "x"}},
		{"invalid channel", DispatchInput{TenantID: uuid.New(), Channel: "pigeon", Type: enums.NotificationTypeEscalation, Title: "x"}},
		{"invalid type", DispatchInput{TenantID: uuid.New(), Channel: enums.NotificationChannelPush, Type: "weird", Title: "x"}},
		{"missing title", DispatchInput{TenantID: uuid.New(), Channel: enums.NotificationChannelPush, Type: enums.NotificationTypeEscalation}},
	}
	for _, tc := range cases {
		if _, err := svc.Dispatch(ctx, tc.input); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestMarkReadIsIdempotentGuarded(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	tenant := uuid.New()

	created, err := svc.Dispatch(ctx, DispatchInput{
		TenantID:  tenant,
		Recipient: "operator",
		Channel:   enums.NotificationChannelInApp,
		Type:      enums.NotificationTypeInventoryThreshold,
		Title:     "Stock low",
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if err := svc.MarkRead(ctx, tenant, created.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	err = svc.MarkRead(ctx, tenant, created.ID)
	if err == nil {
		t.Fatal("expected error on second mark read")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	// Another tenant cannot touch the row.
	if err := svc.MarkRead(ctx, uuid.New(), created.ID); err == nil {
		t.Fatal("expected cross-tenant mark read to fail")
	}
}
