package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
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
	"github.com/truckbite/truckbite-backend/pkg/metrics"
	"github.com/truckbite/truckbite-backend/pkg/types"
)

// TxRunner runs a function inside one database transaction. Satisfied by
// *db.Client.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Escalator arms and disarms the unattended-order watchdog. Kept as a local
// interface so the aggregate does not depend on the scheduler internals.
type Escalator interface {
	Arm(ctx context.Context, tenantID, orderID uuid.UUID, watched enums.OrderStatus) error
	Disarm(ctx context.Context, orderID uuid.UUID) error
}

// Service is the order aggregate: creation claims an order number and stock
// atomically, transitions follow the state machine, and cancellation unwinds
// stock and money.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, tenantID uuid.UUID, status *enums.OrderStatus, limit int) ([]models.Order, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	CancelForLocation(ctx context.Context, tenantID, locationID uuid.UUID, reason string) (int, error)
	ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]models.Order, error)
}

// LineInput is one requested product position.
type LineInput struct {
	ProductID uuid.UUID       `json:"product_id"`
	Qty       int             `json:"qty"`
	Modifiers types.Modifiers `json:"modifiers"`
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	TenantID        uuid.UUID
	LocationID      *uuid.UUID
	ServiceType     enums.ServiceType
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   *string
	Items           []LineInput
	DiscountCents   int
	TipCents        int
	ScheduledAt     *time.Time
	PaymentSourceID string
}

// TransitionInput moves an order to a new status. Reason is required for
// cancellations and ignored otherwise.
type TransitionInput struct {
	TenantID uuid.UUID
	OrderID  uuid.UUID
	Target   enums.OrderStatus
	Reason   string
}

// Deps bundles the collaborators of the aggregate. Payments, notifier and
// escalations may be nil; everything else is required.
type Deps struct {
	Repo        Repository
	Tx          TxRunner
	Tenants     tenants.Service
	Catalog     catalog.Service
	Inventory   inventory.Service
	Sequence    sequence.Service
	Payments    payments.Service
	Notifier    notifications.Service
	Escalations Escalator
	OrdersCfg   config.OrdersConfig
	FeesCfg     config.FeesConfig
	SquareCfg   config.SquareConfig
	Logger      *logger.Logger
	Metrics     *metrics.OrderMetrics
}

type service struct {
	repo        Repository
	tx          TxRunner
	tenants     tenants.Service
	catalog     catalog.Service
	inventory   inventory.Service
	sequence    sequence.Service
	payments    payments.Service
	notifier    notifications.Service
	escalations Escalator
	cfg         config.OrdersConfig
	feesCfg     config.FeesConfig
	squareCfg   config.SquareConfig
	logger      *logger.Logger
	metrics     *metrics.OrderMetrics
}

// NewService wires the order aggregate.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("orders transaction runner required")
	}
	if deps.Tenants == nil {
		return nil, fmt.Errorf("orders tenants service required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("orders catalog service required")
	}
	if deps.Inventory == nil {
		return nil, fmt.Errorf("orders inventory service required")
	}
	if deps.Sequence == nil {
		return nil, fmt.Errorf("orders sequence service required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("orders logger required")
	}
	return &service{
		repo:        deps.Repo,
		tx:          deps.Tx,
		tenants:     deps.Tenants,
		catalog:     deps.Catalog,
		inventory:   deps.Inventory,
		sequence:    deps.Sequence,
		payments:    deps.Payments,
		notifier:    deps.Notifier,
		escalations: deps.Escalations,
		cfg:         deps.OrdersCfg,
		feesCfg:     deps.FeesCfg,
		squareCfg:   deps.SquareCfg,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	started := time.Now()
	now := started

	tenant, err := s.tenants.GetTenant(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "tenant is not accepting orders")
	}
	if input.CustomerName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if err := s.tenants.ValidatePhone(tenant, input.CustomerPhone); err != nil {
		return nil, err
	}
	if !input.ServiceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid service type %q", input.ServiceType))
	}
	if err := s.validateItems(input.Items); err != nil {
		return nil, err
	}
	if err := s.validateSchedule(input.ScheduledAt, now); err != nil {
		return nil, err
	}
	if input.DiscountCents < 0 || input.TipCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount and tip must not be negative")
	}

	lines, reservations, err := s.resolveLines(ctx, tenant, input.Items)
	if err != nil {
		return nil, err
	}

	order, err := s.buildOrder(tenant, input, lines)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.sequence.NextTx(ctx, tx, tenant.ID, now)
		if err != nil {
			return err
		}
		order.Number = number

		if err := s.inventory.ReserveForOrder(ctx, tx, tenant.ID, order.ID, reservations); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"tenant_id":    tenant.ID.String(),
		"order_id":     order.ID.String(),
		"order_number": order.Number,
	})
	s.logger.Info(ctx, "order created")
	s.metrics.IncCreated(string(order.ServiceType))
	s.metrics.ObserveCreateDuration(time.Since(started))

	// The payment intent sits outside the order transaction: a processor
	// outage must not lose the order. The order simply stays pending and
	// unpaid until the client retries payment.
	if input.PaymentSourceID != "" && s.payments != nil {
		record, payErr := s.payments.CreateIntent(ctx, payments.CreateIntentInput{
			TenantID:    tenant.ID,
			OrderID:     order.ID,
			AmountCents: order.TotalCents,
			TipCents:    order.TipCents,
			Currency:    tenant.Currency,
			SourceID:    input.PaymentSourceID,
			LocationID:  s.squareCfg.LocationID,
			ReferenceID: fmt.Sprintf("%d", order.Number),
			InTrial:     s.tenants.InTrialWindow(tenant, now, s.feesCfg.TrialWindow),
		})
		if payErr != nil {
			s.logger.Error(ctx, "payment intent failed, order remains pending", payErr)
		} else {
			order.Payment = record
		}
	}

	if s.escalations != nil {
		if armErr := s.escalations.Arm(ctx, tenant.ID, order.ID, enums.OrderStatusPending); armErr != nil {
			s.logger.Error(ctx, "arming escalation watchdog failed", armErr)
		}
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	if tenantID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and order id are required")
	}
	order, err := s.repo.Get(ctx, tenantID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, status *enums.OrderStatus, limit int) ([]models.Order, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	var statuses []enums.OrderStatus
	if status != nil {
		if !status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *status))
		}
		statuses = []enums.OrderStatus{*status}
	}
	results, err := s.repo.ListByStatus(ctx, tenantID, statuses, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return results, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Target))
	}
	order, err := s.Get(ctx, input.TenantID, input.OrderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if !from.CanTransitionTo(input.Target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition order from %s to %s", from, input.Target)).
			WithDetails(map[string]any{"from": string(from), "to": string(input.Target)})
	}

	if input.Target == enums.OrderStatusCancelled {
		return s.cancel(ctx, order, input.Reason)
	}

	// Completion settles the money first so a capture failure leaves the
	// order in ready, retryable.
	if input.Target == enums.OrderStatusCompleted && order.Payment != nil && s.payments != nil {
		if _, err := s.payments.Capture(ctx, order.TenantID, order.ID); err != nil {
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
				return nil, err
			}
		}
	}

	now := time.Now()
	ok, err := s.repo.UpdateStatus(ctx, order.TenantID, order.ID, from, input.Target, stampColumn(input.Target, now))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	if !ok {
		// A concurrent transition won the race since our read.
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is no longer %s", from)).
			WithDetails(map[string]any{"from": string(from), "to": string(input.Target)})
	}
	order.Status = input.Target
	stampTransition(order, input.Target, now)

	ctx = s.logger.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"from":     string(from),
		"to":       string(input.Target),
	})
	s.logger.Info(ctx, "order transitioned")

	switch input.Target {
	case enums.OrderStatusReady:
		s.notifyReady(ctx, order)
	case enums.OrderStatusCompleted:
		s.metrics.IncCompleted(string(order.ServiceType))
		s.disarm(ctx, order.ID)
	}
	return order, nil
}

// cancel unwinds a live order: stock goes back, money comes back, the
// watchdog stands down. The status flip commits first; each follow-up step
// that fails leaves a compensation failure row instead of blocking the
// cancellation.
func (s *service) cancel(ctx context.Context, order *models.Order, reason string) (*models.Order, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required")
	}

	from := order.Status
	now := time.Now()
	ok, err := s.repo.UpdateStatus(ctx, order.TenantID, order.ID, from, enums.OrderStatusCancelled, map[string]any{
		"cancelled_at":        now,
		"cancellation_reason": reason,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order")
	}
	if !ok {
		// The order moved on while we were deciding; stock and money stay put.
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is no longer %s", from)).
			WithDetails(map[string]any{"from": string(from), "to": string(enums.OrderStatusCancelled)})
	}
	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancellationReason = &reason

	ctx = s.logger.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"from":     string(from),
		"reason":   reason,
	})
	s.logger.Info(ctx, "order cancelled")
	s.metrics.IncCancelled(string(from))

	reservations := reservationsFor(order)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.inventory.ReleaseForOrder(ctx, tx, order.TenantID, order.ID, reservations, reason)
	})
	if err != nil {
		s.recordCompensationFailure(ctx, order, "inventory release failed", err, reservations)
	}

	if payErr := s.reversePayment(ctx, order, reason); payErr != nil {
		s.recordCompensationFailure(ctx, order, "payment reversal failed", payErr, nil)
	}

	s.disarm(ctx, order.ID)
	return order, nil
}

// reversePayment voids an unsettled intent or refunds a captured one.
func (s *service) reversePayment(ctx context.Context, order *models.Order, reason string) error {
	if s.payments == nil {
		return nil
	}
	record, err := s.payments.GetByOrder(ctx, order.TenantID, order.ID)
	if err != nil {
		typed := pkgerrors.As(err)
		if typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}

	if record.Status.IsSettled() {
		_, err = s.payments.Refund(ctx, payments.RefundInput{
			TenantID: order.TenantID,
			OrderID:  order.ID,
			Reason:   reason,
		})
		return err
	}
	if record.Status == enums.PaymentStatusFailed {
		return nil
	}
	_, err = s.payments.CancelIntent(ctx, order.TenantID, order.ID, reason)
	return err
}

// CancelForLocation cancels every live order tied to a deactivated serving
// spot. Ready orders are left alone: the food exists, someone should pick it
// up. Returns the number of orders cancelled.
func (s *service) CancelForLocation(ctx context.Context, tenantID, locationID uuid.UUID, reason string) (int, error) {
	if tenantID == uuid.Nil || locationID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and location id are required")
	}
	if reason == "" {
		reason = "location_mismatch"
	}
	live := []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.OrderStatusPreparing}
	affected, err := s.repo.ListByLocation(ctx, tenantID, locationID, live)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders for location")
	}

	cancelled := 0
	for i := range affected {
		if _, err := s.cancel(ctx, &affected[i], reason); err != nil {
			s.logger.Error(ctx, "cancelling order for deactivated location failed", err)
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

func (s *service) ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]models.Order, error) {
	if olderThan <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stale window must be positive")
	}
	results, err := s.repo.ListStalePending(ctx, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stale orders")
	}
	return results, nil
}

func (s *service) validateItems(items []LineInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if s.cfg.MaxItems > 0 && len(items) > s.cfg.MaxItems {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("order exceeds the maximum of %d items", s.cfg.MaxItems))
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required on every line")
		}
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		if s.cfg.MaxQtyPerItem > 0 && item.Qty > s.cfg.MaxQtyPerItem {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("qty exceeds the maximum of %d per item", s.cfg.MaxQtyPerItem)).
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
	}
	return nil
}

func (s *service) validateSchedule(scheduledAt *time.Time, now time.Time) error {
	if scheduledAt == nil {
		return nil
	}
	if !scheduledAt.After(now) {
		return pkgerrors.New(pkgerrors.CodeValidation, "scheduled time must be in the future")
	}
	if s.cfg.MaxScheduleAdvance > 0 && scheduledAt.After(now.Add(s.cfg.MaxScheduleAdvance)) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("scheduled time exceeds the maximum advance of %s", s.cfg.MaxScheduleAdvance))
	}
	return nil
}

// resolvedLine pairs an order line with the VAT rate that applies to it.
type resolvedLine struct {
	item       models.OrderLineItem
	vatRateBps *int
}

// resolveLines snapshots product names and prices onto the order so later
// catalog edits never change what the customer agreed to pay.
func (s *service) resolveLines(ctx context.Context, tenant *models.Tenant, items []LineInput) ([]resolvedLine, []inventory.Reservation, error) {
	lines := make([]resolvedLine, 0, len(items))
	reservations := make([]inventory.Reservation, 0, len(items))

	for _, item := range items {
		product, err := s.catalog.GetProduct(ctx, tenant.ID, item.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if !product.Available {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
				WithDetails(map[string]any{"product_id": product.ID, "name": product.Name})
		}
		lines = append(lines, resolvedLine{
			item: models.OrderLineItem{
				ProductID:      product.ID,
				Name:           product.Name,
				Qty:            item.Qty,
				UnitPriceCents: product.UnitPriceCents,
				Modifiers:      item.Modifiers.Normalize(),
				SubtotalCents:  item.Qty * product.UnitPriceCents,
			},
			vatRateBps: product.VATRateBps,
		})
		reservations = append(reservations, inventory.Reservation{ProductID: product.ID, Qty: item.Qty})
	}
	return lines, reservations, nil
}

func (s *service) buildOrder(tenant *models.Tenant, input CreateOrderInput, lines []resolvedLine) (*models.Order, error) {
	defaultRate := s.tenants.VATRateBps(tenant, input.ServiceType)

	items := make([]models.OrderLineItem, 0, len(lines))
	subtotal := 0
	vat := 0
	for _, line := range lines {
		items = append(items, line.item)
		subtotal += line.item.SubtotalCents
		// product-level override wins over the tenant default
		rate := defaultRate
		if line.vatRateBps != nil {
			rate = *line.vatRateBps
		}
		vat += roundBps(line.item.SubtotalCents, rate)
	}

	if input.DiscountCents > subtotal+vat {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds the order value")
	}
	total := subtotal + vat - input.DiscountCents + input.TipCents

	return &models.Order{
		ID:            uuid.New(),
		TenantID:      tenant.ID,
		LocationID:    input.LocationID,
		Status:        enums.OrderStatusPending,
		ServiceType:   input.ServiceType,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		CustomerEmail: input.CustomerEmail,
		SubtotalCents: subtotal,
		VATCents:      vat,
		VATRateBps:    defaultRate,
		DiscountCents: input.DiscountCents,
		TipCents:      input.TipCents,
		TotalCents:    total,
		ScheduledAt:   input.ScheduledAt,
		Items:         items,
	}, nil
}

func (s *service) notifyReady(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Dispatch(ctx, notifications.DispatchInput{
		TenantID:  order.TenantID,
		Recipient: order.CustomerPhone,
		Channel:   enums.NotificationChannelSMS,
		Type:      enums.NotificationTypeOrderReady,
		Priority:  enums.NotificationPriorityHigh,
		Title:     fmt.Sprintf("Order #%d is ready", order.Number),
		Body:      fmt.Sprintf("Hi %s, your order #%d is ready for pickup.", order.CustomerName, order.Number),
	})
	if err != nil {
		s.logger.Error(ctx, "dispatching ready notification failed", err)
	}
}

func (s *service) disarm(ctx context.Context, orderID uuid.UUID) {
	if s.escalations == nil {
		return
	}
	if err := s.escalations.Disarm(ctx, orderID); err != nil {
		s.logger.Error(ctx, "disarming escalation watchdog failed", err)
	}
}

func (s *service) recordCompensationFailure(ctx context.Context, order *models.Order, reason string, cause error, reservations []inventory.Reservation) {
	s.logger.Error(ctx, reason, cause)
	s.metrics.IncCompensationFailure()

	payload, _ := json.Marshal(map[string]any{
		"error":        cause.Error(),
		"reservations": reservations,
	})
	orderID := order.ID
	failure := &models.CompensationFailure{
		TenantID: order.TenantID,
		OrderID:  &orderID,
		Reason:   reason,
		Payload:  payload,
	}
	if err := s.repo.RecordCompensationFailure(ctx, failure); err != nil {
		s.logger.Error(ctx, "recording compensation failure", err)
	}
}

// stampColumn names the timestamp column the guarded status UPDATE sets
// alongside the flip.
func stampColumn(target enums.OrderStatus, at time.Time) map[string]any {
	switch target {
	case enums.OrderStatusConfirmed:
		return map[string]any{"confirmed_at": at}
	case enums.OrderStatusPreparing:
		return map[string]any{"preparing_at": at}
	case enums.OrderStatusReady:
		return map[string]any{"ready_at": at}
	case enums.OrderStatusCompleted:
		return map[string]any{"completed_at": at}
	}
	return nil
}

func stampTransition(order *models.Order, target enums.OrderStatus, at time.Time) {
	switch target {
	case enums.OrderStatusConfirmed:
		order.ConfirmedAt = &at
	case enums.OrderStatusPreparing:
		order.PreparingAt = &at
	case enums.OrderStatusReady:
		order.ReadyAt = &at
	case enums.OrderStatusCompleted:
		order.CompletedAt = &at
	}
}

func reservationsFor(order *models.Order) []inventory.Reservation {
	reservations := make([]inventory.Reservation, 0, len(order.Items))
	for _, line := range order.Items {
		reservations = append(reservations, inventory.Reservation{ProductID: line.ProductID, Qty: line.Qty})
	}
	return reservations
}

// roundBps applies a basis-point rate with half-up rounding to whole cents.
func roundBps(cents, rateBps int) int {
	return (cents*rateBps + 5000) / 10000
}
