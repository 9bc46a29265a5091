package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/internal/notifications"
	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

// Service is the stock ledger. Every change to a quantity flows through an
// append-only movement; sales are all-or-nothing and never drive stock below
// zero, while waste and negative adjustments clamp at zero and journal the
// unapplied remainder.
type Service interface {
	UpsertItem(ctx context.Context, input ItemInput) (*models.InventoryItem, error)
	RecordMovement(ctx context.Context, input MovementInput) (*models.InventoryMovement, error)
	ReserveForOrder(ctx context.Context, tx *gorm.DB, tenantID, orderID uuid.UUID, lines []Reservation) error
	ReleaseForOrder(ctx context.Context, tx *gorm.DB, tenantID, orderID uuid.UUID, lines []Reservation, reason string) error
	GetStock(ctx context.Context, tenantID, productID uuid.UUID) (*StockView, error)
	ListStock(ctx context.Context, tenantID uuid.UUID) ([]StockView, error)
	ListMovements(ctx context.Context, tenantID, productID uuid.UUID, limit int) ([]models.InventoryMovement, error)
	Reconcile(ctx context.Context, tenantID uuid.UUID, counts []CountInput) (*ReconcileReport, error)
}

// ItemInput declares or re-tunes a stock item. Quantity is not settable here.
type ItemInput struct {
	TenantID         uuid.UUID
	ProductID        uuid.UUID
	Unit             string
	MinThreshold     int
	ReorderThreshold int
	MaxThreshold     int
}

// MovementInput is one manual ledger entry. Delta carries the sign.
type MovementInput struct {
	TenantID  uuid.UUID
	ProductID uuid.UUID
	Delta     int
	Type      enums.MovementType
	OrderID   *uuid.UUID
	Note      string
}

// Reservation is one line of an order-scoped stock claim.
type Reservation struct {
	ProductID uuid.UUID
	Qty       int
}

// StockView pairs an item with its computed threshold level.
type StockView struct {
	Item  models.InventoryItem
	Level enums.ThresholdLevel
}

// Discrepancy reports an item whose quantity disagrees with its ledger sum.
type Discrepancy struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	LedgerSum int64     `json:"ledger_sum"`
}

// CountInput is one line of a physical stock count.
type CountInput struct {
	ProductID  uuid.UUID `json:"product_id"`
	CountedQty int       `json:"counted_qty"`
}

// AdjustmentResult records an absolute-set correction applied by reconcile.
type AdjustmentResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Previous  int       `json:"previous"`
	Counted   int       `json:"counted"`
	Delta     int       `json:"delta"`
}

// ReconcileReport summarizes a stock count: how many lines matched, which
// were corrected, and any drift between item quantities and the ledger.
type ReconcileReport struct {
	Total       int                `json:"total"`
	Matched     int                `json:"matched"`
	Adjusted    []AdjustmentResult `json:"adjusted"`
	AccuracyPct float64            `json:"accuracy_pct"`
	LedgerDrift []Discrepancy      `json:"ledger_drift"`
}

type service struct {
	repo     Repository
	notifier notifications.Service
	logger   *logger.Logger
}

// NewService wires the inventory service. The notifier may be nil when
// threshold alerts are not wanted (tests, one-off tooling).
func NewService(repo Repository, notifier notifications.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("inventory logger required")
	}
	return &service{repo: repo, notifier: notifier, logger: logg}, nil
}

func (s *service) UpsertItem(ctx context.Context, input ItemInput) (*models.InventoryItem, error) {
	if input.TenantID == uuid.Nil || input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and product id are required")
	}
	if input.MinThreshold < 0 || input.ReorderThreshold < 0 || input.MaxThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "thresholds must not be negative")
	}
	if input.Unit == "" {
		input.Unit = "piece"
	}

	item := &models.InventoryItem{
		TenantID:         input.TenantID,
		ProductID:        input.ProductID,
		Unit:             input.Unit,
		MinThreshold:     input.MinThreshold,
		ReorderThreshold: input.ReorderThreshold,
		MaxThreshold:     input.MaxThreshold,
	}
	if err := s.repo.UpsertItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upserting inventory item")
	}
	return s.repo.GetItem(ctx, input.TenantID, input.ProductID)
}

func (s *service) RecordMovement(ctx context.Context, input MovementInput) (*models.InventoryMovement, error) {
	if err := validateMovement(input); err != nil {
		return nil, err
	}

	// The quantity update and the ledger append commit or roll back as one,
	// so summing the movements always reproduces the stored quantity.
	var movement *models.InventoryMovement
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		applied := input.Delta
		clamped := 0

		if input.Delta < 0 {
			qty := -input.Delta
			ok, err := repo.TryDecrement(ctx, input.TenantID, input.ProductID, qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying movement")
			}
			if !ok {
				if input.Type == enums.MovementTypeSale {
					return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
						WithDetails(map[string]any{"product_id": input.ProductID, "requested": qty})
				}
				// Waste and negative adjustments clamp at zero instead of failing.
				item, err := repo.GetItem(ctx, input.TenantID, input.ProductID)
				if err != nil {
					return s.mapItemErr(err)
				}
				appliedQty := item.Quantity
				if appliedQty > 0 {
					ok, err := repo.TryDecrement(ctx, input.TenantID, input.ProductID, appliedQty)
					if err != nil {
						return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying clamped movement")
					}
					if !ok {
						return pkgerrors.New(pkgerrors.CodeContention, "stock changed concurrently").
							WithDetails(map[string]any{"product_id": input.ProductID})
					}
				}
				clamped = qty - appliedQty
				applied = -appliedQty
			}
		} else {
			ok, err := repo.Increment(ctx, input.TenantID, input.ProductID, input.Delta)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying movement")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
			}
		}

		movement = &models.InventoryMovement{
			TenantID:  input.TenantID,
			ProductID: input.ProductID,
			Delta:     applied,
			Type:      input.Type,
			OrderID:   input.OrderID,
		}
		if input.Note != "" {
			note := input.Note
			movement.Note = &note
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording movement")
		}

		if clamped > 0 {
			note := fmt.Sprintf("clamped at zero, %d unapplied", clamped)
			clampMovement := &models.InventoryMovement{
				TenantID:  input.TenantID,
				ProductID: input.ProductID,
				Delta:     0,
				Type:      enums.MovementTypeClamp,
				OrderID:   input.OrderID,
				Note:      &note,
			}
			if err := repo.CreateMovement(ctx, clampMovement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording clamp movement")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyThresholdCrossing(ctx, nil, input.TenantID, input.ProductID, movement.Delta)
	return movement, nil
}

// ReserveForOrder claims stock for every line or none. It must run inside the
// order transaction so a later failure releases the claims via rollback.
func (s *service) ReserveForOrder(ctx context.Context, tx *gorm.DB, tenantID, orderID uuid.UUID, lines []Reservation) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "reservation requires a transaction")
	}
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one reservation line is required")
	}
	repo := s.repo.WithTx(tx)

	for _, line := range lines {
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "reservation qty must be positive").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		ok, err := repo.TryDecrement(ctx, tenantID, line.ProductID, line.Qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserving stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{"product_id": line.ProductID, "requested": line.Qty})
		}
		movement := &models.InventoryMovement{
			TenantID:  tenantID,
			ProductID: line.ProductID,
			Delta:     -line.Qty,
			Type:      enums.MovementTypeSale,
			OrderID:   &orderID,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording sale movement")
		}
		s.notifyThresholdCrossing(ctx, tx, tenantID, line.ProductID, -line.Qty)
	}
	return nil
}

// ReleaseForOrder returns previously reserved stock, e.g. on cancellation.
func (s *service) ReleaseForOrder(ctx context.Context, tx *gorm.DB, tenantID, orderID uuid.UUID, lines []Reservation, reason string) error {
	repo := s.repo.WithTx(tx)
	for _, line := range lines {
		if line.Qty <= 0 {
			continue
		}
		ok, err := repo.Increment(ctx, tenantID, line.ProductID, line.Qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "releasing stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		movement := &models.InventoryMovement{
			TenantID:  tenantID,
			ProductID: line.ProductID,
			Delta:     line.Qty,
			Type:      enums.MovementTypeReturn,
			OrderID:   &orderID,
		}
		if reason != "" {
			note := reason
			movement.Note = &note
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording return movement")
		}
	}
	return nil
}

func (s *service) GetStock(ctx context.Context, tenantID, productID uuid.UUID) (*StockView, error) {
	if tenantID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and product id are required")
	}
	item, err := s.repo.GetItem(ctx, tenantID, productID)
	if err != nil {
		return nil, s.mapItemErr(err)
	}
	return &StockView{Item: *item, Level: LevelFor(*item)}, nil
}

func (s *service) ListStock(ctx context.Context, tenantID uuid.UUID) ([]StockView, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	items, err := s.repo.ListItems(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stock")
	}
	views := make([]StockView, 0, len(items))
	for _, item := range items {
		views = append(views, StockView{Item: item, Level: LevelFor(item)})
	}
	return views, nil
}

func (s *service) ListMovements(ctx context.Context, tenantID, productID uuid.UUID, limit int) ([]models.InventoryMovement, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	return s.repo.ListMovements(ctx, tenantID, productID, limit)
}

// Reconcile takes a physical stock count and converges each item onto the
// counted quantity with an absolute-set adjustment movement. The report
// carries the count accuracy plus any drift between item quantities and the
// ledger sums observed before adjusting.
func (s *service) Reconcile(ctx context.Context, tenantID uuid.UUID, counts []CountInput) (*ReconcileReport, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}

	report := &ReconcileReport{Adjusted: []AdjustmentResult{}, LedgerDrift: []Discrepancy{}}

	items, err := s.repo.ListItems(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stock for reconcile")
	}
	for _, item := range items {
		sum, err := s.repo.SumDeltas(ctx, tenantID, item.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing ledger deltas")
		}
		if sum != int64(item.Quantity) {
			report.LedgerDrift = append(report.LedgerDrift, Discrepancy{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				LedgerSum: sum,
			})
		}
	}

	for _, count := range counts {
		if count.CountedQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "counted qty must not be negative").
				WithDetails(map[string]any{"product_id": count.ProductID})
		}
		// Each correction is one transaction: the quantity set and the
		// adjustment movement land together or not at all.
		var adjusted *AdjustmentResult
		err := s.repo.Transaction(ctx, func(repo Repository) error {
			item, err := repo.GetItem(ctx, tenantID, count.ProductID)
			if err != nil {
				return s.mapItemErr(err)
			}
			delta := count.CountedQty - item.Quantity
			if delta == 0 {
				return nil
			}

			if delta > 0 {
				ok, err := repo.Increment(ctx, tenantID, count.ProductID, delta)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying count adjustment")
				}
				if !ok {
					return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found").
						WithDetails(map[string]any{"product_id": count.ProductID})
				}
			} else {
				ok, err := repo.TryDecrement(ctx, tenantID, count.ProductID, -delta)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying count adjustment")
				}
				if !ok {
					return pkgerrors.New(pkgerrors.CodeContention, "stock changed during reconciliation").
						WithDetails(map[string]any{"product_id": count.ProductID})
				}
			}
			note := fmt.Sprintf("stock count: %d -> %d", item.Quantity, count.CountedQty)
			movement := &models.InventoryMovement{
				TenantID:  tenantID,
				ProductID: count.ProductID,
				Delta:     delta,
				Type:      enums.MovementTypeAdjustment,
				Note:      &note,
			}
			if err := repo.CreateMovement(ctx, movement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording count adjustment")
			}
			adjusted = &AdjustmentResult{
				ProductID: count.ProductID,
				Previous:  item.Quantity,
				Counted:   count.CountedQty,
				Delta:     delta,
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		report.Total++
		if adjusted == nil {
			report.Matched++
		} else {
			report.Adjusted = append(report.Adjusted, *adjusted)
		}
	}

	if report.Total > 0 {
		report.AccuracyPct = float64(report.Matched) / float64(report.Total) * 100
	} else {
		report.AccuracyPct = 100
	}
	if len(report.LedgerDrift) > 0 || len(report.Adjusted) > 0 {
		ctx = s.logger.WithFields(ctx, map[string]any{
			"tenant_id": tenantID.String(),
			"adjusted":  len(report.Adjusted),
			"drift":     len(report.LedgerDrift),
		})
		s.logger.Warn(ctx, "inventory reconciliation applied corrections")
	}
	return report, nil
}

// LevelFor classifies an item quantity against its thresholds.
func LevelFor(item models.InventoryItem) enums.ThresholdLevel {
	switch {
	case item.Quantity <= item.MinThreshold:
		return enums.ThresholdLevelCritical
	case item.ReorderThreshold > 0 && item.Quantity <= item.ReorderThreshold:
		return enums.ThresholdLevelLow
	case item.MaxThreshold > 0 && item.Quantity >= item.MaxThreshold:
		return enums.ThresholdLevelOverstock
	default:
		return enums.ThresholdLevelOK
	}
}

// notifyThresholdCrossing fires an alert only when a decrement moved the item
// into a worse band, so a steady low level does not spam the operator.
func (s *service) notifyThresholdCrossing(ctx context.Context, tx *gorm.DB, tenantID, productID uuid.UUID, delta int) {
	if s.notifier == nil || delta >= 0 {
		return
	}
	repo := s.repo.WithTx(tx)
	item, err := repo.GetItem(ctx, tenantID, productID)
	if err != nil {
		return
	}
	after := LevelFor(*item)
	if after != enums.ThresholdLevelLow && after != enums.ThresholdLevelCritical {
		return
	}
	before := *item
	before.Quantity = item.Quantity - delta
	if LevelFor(before) == after {
		return
	}

	priority := enums.NotificationPriorityHigh
	if after == enums.ThresholdLevelCritical {
		priority = enums.NotificationPriorityUrgent
	}
	input := notifications.DispatchInput{
		TenantID:  tenantID,
		Recipient: "operator",
		Channel:   enums.NotificationChannelInApp,
		Type:      enums.NotificationTypeInventoryThreshold,
		Priority:  priority,
		Title:     fmt.Sprintf("Stock %s", after),
		Body:      fmt.Sprintf("product %s is down to %d %s", productID, item.Quantity, item.Unit),
	}
	if tx != nil {
		_, err = s.notifier.DispatchTx(ctx, tx, input)
	} else {
		_, err = s.notifier.Dispatch(ctx, input)
	}
	if err != nil {
		s.logger.Error(ctx, "dispatching threshold notification", err)
	}
}

func (s *service) mapItemErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading inventory item")
}

func validateMovement(input MovementInput) error {
	if input.TenantID == uuid.Nil || input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id and product id are required")
	}
	if input.Delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}
	if !input.Type.IsValid() || input.Type == enums.MovementTypeClamp {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", input.Type))
	}
	switch input.Type {
	case enums.MovementTypePurchase, enums.MovementTypeReturn:
		if input.Delta < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s movements must increase stock", input.Type))
		}
	case enums.MovementTypeSale, enums.MovementTypeWaste:
		if input.Delta > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s movements must decrease stock", input.Type))
		}
	}
	return nil
}
