package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/truckbite/truckbite-backend/internal/notifications"
	"github.com/truckbite/truckbite-backend/pkg/config"
	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
	"github.com/truckbite/truckbite-backend/pkg/metrics"
)

const monitorLockName = "escalation-monitor"

// OrderGetter is the slice of the order aggregate the monitor needs.
type OrderGetter interface {
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
}

// Locker is the redis lease surface guarding the single monitor instance.
type Locker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// Monitor works off due escalation checks: if the watched order is still
// stuck in its watched status the alert fires, otherwise the order has moved
// on and every remaining check for it is cancelled.
type Monitor struct {
	repo     Repository
	orders   OrderGetter
	notifier notifications.Service
	locker   Locker
	cfg      config.EscalationConfig
	logger   *logger.Logger
	metrics  *metrics.OrderMetrics
}

// NewMonitor wires the escalation monitor.
func NewMonitor(repo Repository, orders OrderGetter, notifier notifications.Service, locker Locker, cfg config.EscalationConfig, logg *logger.Logger, m *metrics.OrderMetrics) (*Monitor, error) {
	if repo == nil {
		return nil, fmt.Errorf("escalation repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("escalation order getter required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("escalation notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("escalation logger required")
	}
	return &Monitor{
		repo:     repo,
		orders:   orders,
		notifier: notifier,
		locker:   locker,
		cfg:      cfg,
		logger:   logg,
		metrics:  m,
	}, nil
}

// Run polls until the context ends. Only one instance across the fleet does
// work at a time; the others fail the lease and idle.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.cfg.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info(ctx, "escalation monitor started")
	for {
		select {
		case <-ctx.Done():
			m.logger.Info(ctx, "escalation monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := m.tick(ctx, interval); err != nil {
				m.logger.Error(ctx, "escalation tick failed", err)
			}
		}
	}
}

func (m *Monitor) tick(ctx context.Context, leaseTTL time.Duration) error {
	if m.locker != nil {
		key := m.locker.LockKey(monitorLockName)
		acquired, err := m.locker.SetNX(ctx, key, time.Now().UnixNano(), leaseTTL)
		if err != nil {
			return fmt.Errorf("acquiring monitor lease: %w", err)
		}
		if !acquired {
			return nil
		}
		defer func() {
			if err := m.locker.Del(ctx, key); err != nil {
				m.logger.Error(ctx, "releasing monitor lease", err)
			}
		}()
	}
	_, _, err := m.RunOnce(ctx)
	return err
}

// RunOnce processes one batch of due checks and reports how many alerts
// fired and how many were cancelled because the order had moved on.
func (m *Monitor) RunOnce(ctx context.Context) (fired, cancelled int, err error) {
	due, err := m.repo.ListDue(ctx, time.Now(), m.cfg.ClaimBatch)
	if err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing due checks")
	}

	for i := range due {
		alert := due[i]
		ok, checkErr := m.check(ctx, alert)
		if checkErr != nil {
			m.logger.Error(ctx, "processing escalation check failed", checkErr)
			continue
		}
		if ok {
			fired++
		} else {
			cancelled++
		}
	}
	return fired, cancelled, nil
}

// check returns true when the alert fired, false when the remaining checks
// for the order were cancelled instead.
func (m *Monitor) check(ctx context.Context, alert models.EscalationAlert) (bool, error) {
	now := time.Now()

	order, err := m.orders.Get(ctx, alert.TenantID, alert.OrderID)
	if err != nil {
		typed := pkgerrors.As(err)
		if typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			// Order vanished, nothing left to watch.
			_, cancelErr := m.repo.CancelRemaining(ctx, alert.OrderID, now)
			return false, cancelErr
		}
		return false, err
	}

	if order.Status != alert.WatchedStatus {
		_, err := m.repo.CancelRemaining(ctx, alert.OrderID, now)
		return false, err
	}

	if err := m.repo.MarkFired(ctx, alert.ID, now); err != nil {
		return false, err
	}

	age := now.Sub(order.CreatedAt).Round(time.Minute)
	_, err = m.notifier.Dispatch(ctx, notifications.DispatchInput{
		TenantID:  alert.TenantID,
		Recipient: "operator",
		Channel:   enums.NotificationChannelInApp,
		Type:      enums.NotificationTypeEscalation,
		Priority:  priorityFor(alert.Severity),
		Title:     fmt.Sprintf("Order #%d needs attention", order.Number),
		Body:      fmt.Sprintf("order has been %s for %s (severity %s)", order.Status, age, alert.Severity),
	})
	if err != nil {
		m.logger.Error(ctx, "dispatching escalation notification failed", err)
	}

	m.metrics.IncEscalationFired(string(alert.Severity))
	ctx = m.logger.WithFields(ctx, map[string]any{
		"order_id": alert.OrderID.String(),
		"step":     alert.Step,
		"severity": string(alert.Severity),
	})
	m.logger.Warn(ctx, "escalation alert fired")
	return true, nil
}

func priorityFor(severity enums.AlertSeverity) enums.NotificationPriority {
	switch severity {
	case enums.AlertSeverityCritical:
		return enums.NotificationPriorityUrgent
	case enums.AlertSeverityWarning:
		return enums.NotificationPriorityHigh
	default:
		return enums.NotificationPriorityNormal
	}
}
