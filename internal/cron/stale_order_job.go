package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/aurevo/storefront/pkg/logger"
)

const (
	defaultStaleOrderAfter = 30 * time.Minute
	staleOrderReason       = "Submission interrupted"
)

type StaleOrderJobParams struct {
	Logger *logger.Logger
	Orders staleOrderMarker
	After  time.Duration
}

type staleOrderMarker interface {
	FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

// NewStaleOrderJob builds the job that closes out orders left Pending by a
// submission that never recorded its outcome.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	after := params.After
	if after <= 0 {
		after = defaultStaleOrderAfter
	}
	return &staleOrderJob{
		logg:   params.Logger,
		orders: params.Orders,
		after:  after,
		now:    time.Now,
	}, nil
}

type staleOrderJob struct {
	logg   *logger.Logger
	orders staleOrderMarker
	after  time.Duration
	now    func() time.Time
}

func (j *staleOrderJob) Name() string { return "stale-orders" }

func (j *staleOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.after)
	rows, err := j.orders.FailStalePending(ctx, cutoff, staleOrderReason)
	if err != nil {
		return fmt.Errorf("stale orders: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":      cutoff,
		"rows_failed": rows,
	})
	if rows > 0 {
		j.logg.Warn(logCtx, "stale pending orders marked failed")
		return nil
	}
	j.logg.Info(logCtx, "no stale pending orders")
	return nil
}
