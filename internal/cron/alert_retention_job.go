package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/truckbite/truckbite-backend/pkg/logger"
)

const defaultAlertRetention = 30 * 24 * time.Hour

// AlertRetentionJobParams configure the escalation alert cleanup.
type AlertRetentionJobParams struct {
	Logger    *logger.Logger
	Purger    alertPurger
	Retention time.Duration
}

type alertPurger interface {
	PurgeResolved(ctx context.Context, retention time.Duration) (int64, error)
}

// NewAlertRetentionJob builds the cron job that drops old resolved
// escalation alerts. Live checks are never touched.
func NewAlertRetentionJob(params AlertRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Purger == nil {
		return nil, fmt.Errorf("alert purger required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultAlertRetention
	}
	return &alertRetentionJob{
		logg:      params.Logger,
		purger:    params.Purger,
		retention: retention,
	}, nil
}

type alertRetentionJob struct {
	logg      *logger.Logger
	purger    alertPurger
	retention time.Duration
}

func (j *alertRetentionJob) Name() string { return "alert-retention" }

func (j *alertRetentionJob) Run(ctx context.Context) error {
	purged, err := j.purger.PurgeResolved(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("alert retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention":    j.retention.String(),
		"rows_deleted": purged,
	})
	j.logg.Info(logCtx, "alert retention complete")
	return nil
}
