package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/config"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
	"github.com/truckbite/truckbite-backend/pkg/metrics"
)

const dayFormat = "2006-01-02"

// Service hands out customer-facing order numbers. Numbers are unique and
// strictly increasing per tenant within one calendar day and reset to the
// configured base the next day. Gaps are acceptable; duplicates are not.
type Service interface {
	Next(ctx context.Context, tenantID uuid.UUID, at time.Time) (int64, error)
	NextTx(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, at time.Time) (int64, error)
}

type service struct {
	repo    Repository
	cfg     config.OrdersConfig
	logger  *logger.Logger
	metrics *metrics.OrderMetrics
}

// NewService wires a sequence service with the provided repository.
func NewService(repo Repository, cfg config.OrdersConfig, logg *logger.Logger, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sequence repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("sequence logger required")
	}
	return &service{repo: repo, cfg: cfg, logger: logg, metrics: m}, nil
}

func (s *service) Next(ctx context.Context, tenantID uuid.UUID, at time.Time) (int64, error) {
	return s.next(ctx, s.repo, tenantID, at)
}

// NextTx allocates inside the caller's transaction so the claimed number
// commits or rolls back together with the order row.
func (s *service) NextTx(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, at time.Time) (int64, error) {
	return s.next(ctx, s.repo.WithTx(tx), tenantID, at)
}

func (s *service) next(ctx context.Context, repo Repository, tenantID uuid.UUID, at time.Time) (int64, error) {
	if tenantID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	day := at.UTC().Format(dayFormat)

	backoff := retry.WithMaxRetries(uint64(s.cfg.SequenceRetries), retry.NewFibonacci(10*time.Millisecond))

	var number int64
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		n, allocErr := repo.Allocate(ctx, tenantID, day, s.cfg.SequenceBase)
		if allocErr != nil {
			s.metrics.IncSequenceRetry()
			return retry.RetryableError(allocErr)
		}
		number = n
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "order number allocation exhausted retries", err)
		return 0, pkgerrors.Wrap(pkgerrors.CodeContention, err, "order number allocation failed")
	}
	return number, nil
}
