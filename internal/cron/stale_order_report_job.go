package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/truckbite/truckbite-backend/internal/notifications"
	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

const defaultStaleWindow = time.Hour

// StaleOrderReportJobParams configure the stale pending-order report.
type StaleOrderReportJobParams struct {
	Logger   *logger.Logger
	Orders   staleOrderLister
	Notifier notifications.Service
	Window   time.Duration
}

type staleOrderLister interface {
	ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]models.Order, error)
}

// NewStaleOrderReportJob builds the cron job that tells each operator how
// many of their orders sat in pending past the stale window. Escalation
// handles per-order alerts; this is the aggregate daily-driver view.
func NewStaleOrderReportJob(params StaleOrderReportJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders lister required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultStaleWindow
	}
	return &staleOrderReportJob{
		logg:     params.Logger,
		orders:   params.Orders,
		notifier: params.Notifier,
		window:   window,
	}, nil
}

type staleOrderReportJob struct {
	logg     *logger.Logger
	orders   staleOrderLister
	notifier notifications.Service
	window   time.Duration
}

func (j *staleOrderReportJob) Name() string { return "stale-order-report" }

func (j *staleOrderReportJob) Run(ctx context.Context) error {
	stale, err := j.orders.ListStalePending(ctx, j.window, 0)
	if err != nil {
		return fmt.Errorf("stale order report: %w", err)
	}

	byTenant := map[uuid.UUID]int{}
	for _, order := range stale {
		byTenant[order.TenantID]++
	}
	var errs []error
	for tenantID, count := range byTenant {
		_, err := j.notifier.Dispatch(ctx, notifications.DispatchInput{
			TenantID:  tenantID,
			Recipient: "operator",
			Channel:   enums.NotificationChannelInApp,
			Type:      enums.NotificationTypeEscalation,
			Priority:  enums.NotificationPriorityHigh,
			Title:     fmt.Sprintf("%d orders waiting longer than %s", count, j.window),
			Body:      "These orders are still pending. Confirm or cancel them so customers are not left hanging.",
		})
		if err != nil {
			j.logg.Error(ctx, "dispatching stale order report failed", err)
			errs = append(errs, fmt.Errorf("tenant %s: %w", tenantID, err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"stale_orders": len(stale),
		"tenants":      len(byTenant),
	})
	j.logg.Info(logCtx, "stale order report complete")
	return multierr.Combine(errs...)
}
