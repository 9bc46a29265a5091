package locations

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/internal/notifications"
	"github.com/truckbite/truckbite-backend/pkg/config"
	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

// VerifyStatus classifies the outcome of a compliance check.
type VerifyStatus string

const (
	VerifyStatusMatch    VerifyStatus = "match"
	VerifyStatusMismatch VerifyStatus = "mismatch"
	VerifyStatusNoReport VerifyStatus = "no_report"
	VerifyStatusInactive VerifyStatus = "inactive"
)

// VerifyResult reports one compliance check over a serving location.
type VerifyResult struct {
	LocationID      uuid.UUID    `json:"location_id"`
	Status          VerifyStatus `json:"status"`
	DistanceM       float64      `json:"distance_m"`
	Deactivated     bool         `json:"deactivated"`
	CancelledOrders int          `json:"cancelled_orders"`
}

// OrderCanceller is the slice of the order aggregate the compliance checker
// needs to unwind orders at a pulled spot.
type OrderCanceller interface {
	CancelForLocation(ctx context.Context, tenantID, locationID uuid.UUID, reason string) (int, error)
}

// Service watches advertised serving spots against the truck's reported
// position. A spot whose last report sits outside the match radius for
// longer than the grace period is pulled and its live orders cancelled.
type Service interface {
	CreateLocation(ctx context.Context, input LocationInput) (*models.TenantLocation, error)
	GetLocation(ctx context.Context, tenantID, locationID uuid.UUID) (*models.TenantLocation, error)
	ListLocations(ctx context.Context, tenantID uuid.UUID) ([]models.TenantLocation, error)
	ReportPosition(ctx context.Context, tenantID, locationID uuid.UUID, lat, lng float64) error
	Verify(ctx context.Context, tenantID, locationID uuid.UUID) (*VerifyResult, error)
	Sweep(ctx context.Context) (checked, deactivated int, err error)
}

// LocationInput declares a new advertised serving spot.
type LocationInput struct {
	TenantID  uuid.UUID
	Name      string
	Latitude  float64
	Longitude float64
}

type service struct {
	repo     Repository
	orders   OrderCanceller
	notifier notifications.Service
	cfg      config.LocationConfig
	logger   *logger.Logger
}

// NewService wires the location compliance checker. Orders and notifier may
// be nil when cancellation side effects are not wanted.
func NewService(repo Repository, orders OrderCanceller, notifier notifications.Service, cfg config.LocationConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("locations repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("locations logger required")
	}
	return &service{repo: repo, orders: orders, notifier: notifier, cfg: cfg, logger: logg}, nil
}

func (s *service) CreateLocation(ctx context.Context, input LocationInput) (*models.TenantLocation, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name is required")
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}

	location := &models.TenantLocation{
		TenantID:  input.TenantID,
		Name:      input.Name,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Active:    true,
	}
	if err := s.repo.Create(ctx, location); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating location")
	}
	return location, nil
}

func (s *service) GetLocation(ctx context.Context, tenantID, locationID uuid.UUID) (*models.TenantLocation, error) {
	if tenantID == uuid.Nil || locationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and location id are required")
	}
	location, err := s.repo.Get(ctx, tenantID, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading location")
	}
	return location, nil
}

func (s *service) ListLocations(ctx context.Context, tenantID uuid.UUID) ([]models.TenantLocation, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	locations, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing locations")
	}
	return locations, nil
}

func (s *service) ReportPosition(ctx context.Context, tenantID, locationID uuid.UUID, lat, lng float64) error {
	if tenantID == uuid.Nil || locationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id and location id are required")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	affected, err := s.repo.ReportPosition(ctx, tenantID, locationID, lat, lng, time.Now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording position report")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	}
	return nil
}

func (s *service) Verify(ctx context.Context, tenantID, locationID uuid.UUID) (*VerifyResult, error) {
	location, err := s.GetLocation(ctx, tenantID, locationID)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, location)
}

func (s *service) verify(ctx context.Context, location *models.TenantLocation) (*VerifyResult, error) {
	result := &VerifyResult{LocationID: location.ID}

	if !location.Active {
		result.Status = VerifyStatusInactive
		return result, nil
	}
	if location.LastReportedLat == nil || location.LastReportedLng == nil || location.LastReportAt == nil {
		result.Status = VerifyStatusNoReport
		return result, nil
	}

	result.DistanceM = haversineM(
		location.Latitude, location.Longitude,
		*location.LastReportedLat, *location.LastReportedLng,
	)
	if result.DistanceM <= s.cfg.MatchRadiusM {
		result.Status = VerifyStatusMatch
		return result, nil
	}

	result.Status = VerifyStatusMismatch
	// A fresh mismatch gets the grace period to self-correct before the
	// spot is pulled.
	if time.Since(*location.LastReportAt) <= s.cfg.GracePeriod {
		return result, nil
	}

	affected, err := s.repo.Deactivate(ctx, location.TenantID, location.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating location")
	}
	if affected == 0 {
		// Another sweep got here first.
		return result, nil
	}
	result.Deactivated = true

	ctx = s.logger.WithFields(ctx, map[string]any{
		"tenant_id":   location.TenantID.String(),
		"location_id": location.ID.String(),
		"distance_m":  math.Round(result.DistanceM),
	})
	s.logger.Warn(ctx, "location deactivated after unresolved position mismatch")

	if s.orders != nil {
		cancelled, cancelErr := s.orders.CancelForLocation(ctx, location.TenantID, location.ID, "location_mismatch")
		if cancelErr != nil {
			s.logger.Error(ctx, "cancelling orders for pulled location failed", cancelErr)
		}
		result.CancelledOrders = cancelled
	}
	if s.notifier != nil {
		_, notifyErr := s.notifier.Dispatch(ctx, notifications.DispatchInput{
			TenantID:  location.TenantID,
			Recipient: "operator",
			Channel:   enums.NotificationChannelInApp,
			Type:      enums.NotificationTypeLocationCancelled,
			Priority:  enums.NotificationPriorityUrgent,
			Title:     fmt.Sprintf("Location %q deactivated", location.Name),
			Body: fmt.Sprintf("truck reported %.0fm away from the advertised spot; %d live orders cancelled",
				result.DistanceM, result.CancelledOrders),
		})
		if notifyErr != nil {
			s.logger.Error(ctx, "dispatching location notification failed", notifyErr)
		}
	}
	return result, nil
}

// Sweep verifies every active location on the platform.
func (s *service) Sweep(ctx context.Context) (checked, deactivated int, err error) {
	active, err := s.repo.ListActive(ctx, 0)
	if err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing active locations")
	}
	for i := range active {
		result, verifyErr := s.verify(ctx, &active[i])
		if verifyErr != nil {
			s.logger.Error(ctx, "verifying location failed", verifyErr)
			continue
		}
		checked++
		if result.Deactivated {
			deactivated++
		}
	}
	return checked, deactivated, nil
}

const earthRadiusM = 6371000

// haversineM returns the great-circle distance between two points in meters.
func haversineM(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
