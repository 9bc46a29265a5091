package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
)

// Service exposes the per-tenant product catalog.
type Service interface {
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID) ([]models.Product, error)
	SetAvailability(ctx context.Context, tenantID, productID uuid.UUID, available bool) error
}

// ProductInput declares a new menu item.
type ProductInput struct {
	TenantID       uuid.UUID
	Name           string
	UnitPriceCents int
	Unit           string
	VATRateBps     *int
	Available      bool
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.UnitPriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	if input.VATRateBps != nil && (*input.VATRateBps < 0 || *input.VATRateBps > 10000) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vat rate must be between 0 and 10000 basis points")
	}
	if input.Unit == "" {
		input.Unit = "piece"
	}

	product := &models.Product{
		TenantID:       input.TenantID,
		Name:           input.Name,
		Available:      input.Available,
		UnitPriceCents: input.UnitPriceCents,
		Unit:           input.Unit,
		VATRateBps:     input.VATRateBps,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	if tenantID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and product id are required")
	}
	product, err := s.repo.Get(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, tenantID uuid.UUID) ([]models.Product, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	return s.repo.List(ctx, tenantID)
}

func (s *service) SetAvailability(ctx context.Context, tenantID, productID uuid.UUID, available bool) error {
	if tenantID == uuid.Nil || productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id and product id are required")
	}
	affected, err := s.repo.SetAvailability(ctx, tenantID, productID, available)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating availability")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
