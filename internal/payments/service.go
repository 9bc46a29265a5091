package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
	"github.com/truckbite/truckbite-backend/pkg/metrics"
	"github.com/truckbite/truckbite-backend/pkg/square"
)

// Gateway is the slice of the Square wrapper the adapter needs. Satisfied by
// *square.Client; faked in tests.
type Gateway interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
	UpdatePaymentTip(ctx context.Context, params square.PaymentTipParams) (*sq.Payment, error)
	CompletePayment(ctx context.Context, paymentID string) (*sq.Payment, error)
	CancelPayment(ctx context.Context, paymentID string) (*sq.Payment, error)
	RefundPayment(ctx context.Context, params square.RefundParams) (*sq.PaymentRefund, error)
}

// Service orchestrates payment intents for the order aggregate. It owns no
// order state; it keeps payment_records in step with the processor.
type Service interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*models.PaymentRecord, error)
	AddTip(ctx context.Context, tenantID, orderID uuid.UUID, tipCents int) (*models.PaymentRecord, error)
	Capture(ctx context.Context, tenantID, orderID uuid.UUID) (*models.PaymentRecord, error)
	CancelIntent(ctx context.Context, tenantID, orderID uuid.UUID, reason string) (*models.PaymentRecord, error)
	Refund(ctx context.Context, input RefundInput) (*models.PaymentRecord, error)
	GetByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*models.PaymentRecord, error)
}

// CreateIntentInput authorizes a charge for a freshly created order.
type CreateIntentInput struct {
	TenantID    uuid.UUID
	OrderID     uuid.UUID
	AmountCents int
	TipCents    int
	Currency    string
	SourceID    string
	LocationID  string
	ReferenceID string
	InTrial     bool
}

// RefundInput reverses all or part of a captured payment. AmountCents 0
// means full refund of whatever remains.
type RefundInput struct {
	TenantID    uuid.UUID
	OrderID     uuid.UUID
	AmountCents int
	Reason      string
}

type service struct {
	repo    Repository
	gateway Gateway
	fees    *FeeSchedule
	logger  *logger.Logger
	metrics *metrics.OrderMetrics
}

// NewService wires the payment adapter.
func NewService(repo Repository, gateway Gateway, fees *FeeSchedule, logg *logger.Logger, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payments gateway required")
	}
	if fees == nil {
		return nil, fmt.Errorf("payments fee schedule required")
	}
	if logg == nil {
		return nil, fmt.Errorf("payments logger required")
	}
	return &service{repo: repo, gateway: gateway, fees: fees, logger: logg, metrics: m}, nil
}

func (s *service) CreateIntent(ctx context.Context, input CreateIntentInput) (*models.PaymentRecord, error) {
	if input.TenantID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and order id are required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.SourceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source is required")
	}

	feeCents := s.fees.PlatformFeeCents(input.AmountCents-input.TipCents, input.TipCents, input.InTrial)

	payment, err := s.gateway.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:      int64(input.AmountCents - input.TipCents),
		TipCents:         int64(input.TipCents),
		PlatformFeeCents: int64(feeCents),
		Currency:         input.Currency,
		LocationID:       input.LocationID,
		SourceID:         input.SourceID,
		ReferenceID:      input.ReferenceID,
		IdempotencyKey:   fmt.Sprintf("intent-%s", input.OrderID),
	})
	if err != nil {
		s.metrics.IncPaymentFailure("create_intent")
		return nil, err
	}

	record := &models.PaymentRecord{
		OrderID:          input.OrderID,
		TenantID:         input.TenantID,
		IntentRef:        stringValue(payment.GetID()),
		Status:           statusFromSquare(payment.GetStatus()),
		AmountCents:      input.AmountCents - input.TipCents,
		TipCents:         input.TipCents,
		PlatformFeeCents: feeCents,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting payment record")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"order_id":   input.OrderID.String(),
		"intent_ref": record.IntentRef,
		"fee_cents":  feeCents,
	})
	s.logger.Info(ctx, "payment intent created")
	return record, nil
}

// AddTip adjusts the tip on an intent that has not settled yet.
func (s *service) AddTip(ctx context.Context, tenantID, orderID uuid.UUID, tipCents int) (*models.PaymentRecord, error) {
	if tipCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tip must not be negative")
	}
	record, err := s.GetByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if record.Status.IsSettled() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "tip cannot change after the payment settled")
	}

	if _, err := s.gateway.UpdatePaymentTip(ctx, square.PaymentTipParams{
		PaymentID: record.IntentRef,
		TipCents:  int64(tipCents),
	}); err != nil {
		s.metrics.IncPaymentFailure("add_tip")
		return nil, err
	}

	record.TipCents = tipCents
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating payment record")
	}
	return record, nil
}

// Capture settles an authorized intent; called when the order completes.
func (s *service) Capture(ctx context.Context, tenantID, orderID uuid.UUID) (*models.PaymentRecord, error) {
	record, err := s.GetByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if record.Status == enums.PaymentStatusCaptured {
		return record, nil // already captured, idempotent
	}
	if record.Status != enums.PaymentStatusAuthorized && record.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment in status %s cannot be captured", record.Status))
	}

	payment, err := s.gateway.CompletePayment(ctx, record.IntentRef)
	if err != nil {
		s.metrics.IncPaymentFailure("capture")
		return nil, err
	}

	record.Status = statusFromSquare(payment.GetStatus())
	if record.Status == enums.PaymentStatusPending {
		record.Status = enums.PaymentStatusCaptured
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating payment record")
	}
	return record, nil
}

// CancelIntent voids an uncaptured authorization.
func (s *service) CancelIntent(ctx context.Context, tenantID, orderID uuid.UUID, reason string) (*models.PaymentRecord, error) {
	record, err := s.GetByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if record.Status.IsSettled() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "settled payments must be refunded, not voided")
	}
	if record.Status == enums.PaymentStatusFailed {
		return record, nil
	}

	if _, err := s.gateway.CancelPayment(ctx, record.IntentRef); err != nil {
		s.metrics.IncPaymentFailure("cancel_intent")
		return nil, err
	}

	record.Status = enums.PaymentStatusFailed
	if reason != "" {
		record.FailureReason = &reason
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating payment record")
	}
	return record, nil
}

func (s *service) Refund(ctx context.Context, input RefundInput) (*models.PaymentRecord, error) {
	if input.AmountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must not be negative")
	}
	record, err := s.GetByOrder(ctx, input.TenantID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !record.Status.IsSettled() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only captured payments can be refunded")
	}

	capturedTotal := record.AmountCents + record.TipCents
	remaining := capturedTotal - record.RefundedCents
	amount := input.AmountCents
	if amount == 0 {
		amount = remaining
	}
	if amount > remaining {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "refund exceeds the captured total").
			WithDetails(map[string]any{"requested": amount, "remaining": remaining})
	}
	if amount == 0 {
		return record, nil // nothing left to refund
	}

	if _, err := s.gateway.RefundPayment(ctx, square.RefundParams{
		PaymentID:      record.IntentRef,
		AmountCents:    int64(amount),
		Reason:         input.Reason,
		IdempotencyKey: fmt.Sprintf("refund-%s-%d", input.OrderID, record.RefundedCents+amount),
	}); err != nil {
		s.metrics.IncPaymentFailure("refund")
		return nil, err
	}

	record.RefundedCents += amount
	if record.RefundedCents >= capturedTotal {
		record.Status = enums.PaymentStatusRefunded
	} else {
		record.Status = enums.PaymentStatusPartiallyRefunded
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating payment record")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"order_id":       input.OrderID.String(),
		"refunded_cents": record.RefundedCents,
		"status":         string(record.Status),
	})
	s.logger.Info(ctx, "payment refunded")
	return record, nil
}

func (s *service) GetByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*models.PaymentRecord, error) {
	if tenantID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and order id are required")
	}
	record, err := s.repo.GetByOrder(ctx, tenantID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment record")
	}
	return record, nil
}

func statusFromSquare(status *string) enums.PaymentStatus {
	if status == nil {
		return enums.PaymentStatusPending
	}
	switch *status {
	case "APPROVED":
		return enums.PaymentStatusAuthorized
	case "COMPLETED":
		return enums.PaymentStatusCaptured
	case "CANCELED", "FAILED":
		return enums.PaymentStatusFailed
	default:
		return enums.PaymentStatusPending
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
