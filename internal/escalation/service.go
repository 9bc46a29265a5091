package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/truckbite/truckbite-backend/pkg/config"
	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

// Service schedules the unattended-order watchdog. Arming writes one durable
// check per configured delay step, so armed orders survive restarts; the
// monitor in this package works the rows off.
type Service interface {
	Arm(ctx context.Context, tenantID, orderID uuid.UUID, watched enums.OrderStatus) error
	Disarm(ctx context.Context, orderID uuid.UUID) error
	Ack(ctx context.Context, tenantID, alertID uuid.UUID) error
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.EscalationAlert, error)
	PurgeResolved(ctx context.Context, retention time.Duration) (int64, error)
}

type service struct {
	repo   Repository
	cfg    config.EscalationConfig
	logger *logger.Logger
}

// NewService wires the escalation scheduler.
func NewService(repo Repository, cfg config.EscalationConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("escalation repository required")
	}
	if len(cfg.CheckDelays) == 0 {
		return nil, fmt.Errorf("escalation check delays required")
	}
	if logg == nil {
		return nil, fmt.Errorf("escalation logger required")
	}
	return &service{repo: repo, cfg: cfg, logger: logg}, nil
}

func (s *service) Arm(ctx context.Context, tenantID, orderID uuid.UUID, watched enums.OrderStatus) error {
	if tenantID == uuid.Nil || orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id and order id are required")
	}
	if !watched.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", watched))
	}

	now := time.Now()
	alerts := make([]models.EscalationAlert, 0, len(s.cfg.CheckDelays))
	for step, delay := range s.cfg.CheckDelays {
		alerts = append(alerts, models.EscalationAlert{
			TenantID:      tenantID,
			OrderID:       orderID,
			WatchedStatus: watched,
			Step:          step,
			Severity:      enums.SeverityForStep(step),
			NextCheckAt:   now.Add(delay),
		})
	}
	if err := s.repo.InsertSteps(ctx, alerts); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "arming escalation checks")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"order_id": orderID.String(),
		"steps":    len(alerts),
	})
	s.logger.Info(ctx, "escalation watchdog armed")
	return nil
}

// Disarm cancels every pending check for the order. Disarming an order with
// no pending checks is a no-op.
func (s *service) Disarm(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if _, err := s.repo.CancelRemaining(ctx, orderID, time.Now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "disarming escalation checks")
	}
	return nil
}

func (s *service) Ack(ctx context.Context, tenantID, alertID uuid.UUID) error {
	if tenantID == uuid.Nil || alertID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id and alert id are required")
	}
	affected, err := s.repo.Ack(ctx, tenantID, alertID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "acknowledging alert")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "alert not found, not fired yet, or already acknowledged")
	}
	return nil
}

func (s *service) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.EscalationAlert, error) {
	if tenantID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and order id are required")
	}
	alerts, err := s.repo.ListByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing alerts")
	}
	return alerts, nil
}

func (s *service) PurgeResolved(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "retention must be positive")
	}
	purged, err := s.repo.PurgeResolved(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "purging resolved alerts")
	}
	return purged, nil
}
