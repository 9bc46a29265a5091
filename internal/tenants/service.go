package tenants

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
)

// Service is the tenant registry: open/closed flag, phone validation rules,
// VAT defaults per service type and the fee trial window.
type Service interface {
	CreateTenant(ctx context.Context, input TenantInput) (*models.Tenant, error)
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	SetOpen(ctx context.Context, tenantID uuid.UUID, open bool) error
	ValidatePhone(tenant *models.Tenant, phone string) error
	VATRateBps(tenant *models.Tenant, serviceType enums.ServiceType) int
	InTrialWindow(tenant *models.Tenant, at time.Time, window time.Duration) bool
}

// TenantInput declares a new operator.
type TenantInput struct {
	Name         string
	PhonePattern string
	Currency     string
	VATPickupBps int
	VATTableBps  int
	TrialStart   *time.Time
}

type service struct {
	repo Repository
}

// NewService wires a tenants service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tenants repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateTenant(ctx context.Context, input TenantInput) (*models.Tenant, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant name is required")
	}
	if input.PhonePattern != "" {
		if _, err := regexp.Compile(input.PhonePattern); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone pattern is not a valid regular expression")
		}
	}
	if input.Currency == "" {
		input.Currency = "EUR"
	}
	if input.VATPickupBps == 0 {
		input.VATPickupBps = 700
	}
	if input.VATTableBps == 0 {
		input.VATTableBps = 1900
	}

	tenant := &models.Tenant{
		Name:           input.Name,
		IsOpen:         true,
		PhonePattern:   input.PhonePattern,
		Currency:       input.Currency,
		VATPickupBps:   input.VATPickupBps,
		VATTableBps:    input.VATTableBps,
		TrialStartedAt: input.TrialStart,
	}
	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating tenant")
	}
	return tenant, nil
}

func (s *service) GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	tenant, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading tenant")
	}
	return tenant, nil
}

func (s *service) SetOpen(ctx context.Context, tenantID uuid.UUID, open bool) error {
	if tenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	affected, err := s.repo.SetOpen(ctx, tenantID, open)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating tenant")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
	}
	return nil
}

// ValidatePhone checks the customer phone against the tenant's accepted
// pattern. Tenants without a pattern accept any non-empty phone.
func (s *service) ValidatePhone(tenant *models.Tenant, phone string) error {
	if phone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone is required")
	}
	if tenant == nil || tenant.PhonePattern == "" {
		return nil
	}
	re, err := regexp.Compile(tenant.PhonePattern)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "tenant phone pattern is invalid")
	}
	if !re.MatchString(phone) {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone does not match the accepted format")
	}
	return nil
}

// VATRateBps returns the tenant default VAT rate for the service type.
func (s *service) VATRateBps(tenant *models.Tenant, serviceType enums.ServiceType) int {
	if tenant == nil {
		return 0
	}
	if serviceType == enums.ServiceTypeTable {
		return tenant.VATTableBps
	}
	return tenant.VATPickupBps
}

// InTrialWindow reports whether the tenant is still inside the fee-free
// onboarding window at the given time.
func (s *service) InTrialWindow(tenant *models.Tenant, at time.Time, window time.Duration) bool {
	if tenant == nil || tenant.TrialStartedAt == nil || window <= 0 {
		return false
	}
	return at.Before(tenant.TrialStartedAt.Add(window))
}
