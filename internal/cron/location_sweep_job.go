package cron

import (
	"context"
	"fmt"

	"github.com/truckbite/truckbite-backend/pkg/logger"
)

// LocationSweepJobParams configure the compliance sweep.
type LocationSweepJobParams struct {
	Logger  *logger.Logger
	Sweeper locationSweeper
}

type locationSweeper interface {
	Sweep(ctx context.Context) (checked, deactivated int, err error)
}

// NewLocationSweepJob builds the cron job that verifies every active
// serving location against its last reported position.
func NewLocationSweepJob(params LocationSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("location sweeper required")
	}
	return &locationSweepJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
	}, nil
}

type locationSweepJob struct {
	logg    *logger.Logger
	sweeper locationSweeper
}

func (j *locationSweepJob) Name() string { return "location-sweep" }

func (j *locationSweepJob) Run(ctx context.Context) error {
	checked, deactivated, err := j.sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("location sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"checked":     checked,
		"deactivated": deactivated,
	})
	j.logg.Info(logCtx, "location sweep complete")
	return nil
}
