package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/aurevo/storefront/pkg/logger"
	"gorm.io/gorm"
)

const defaultCartRetention = 30 * 24 * time.Hour

type CartRetentionJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Carts     cartPruner
	KeyPrefix string
	Retention time.Duration
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartPruner interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, prefix string, cutoff time.Time) (int64, error)
}

// NewCartRetentionJob builds the job that drops carts untouched for the
// retention window from sql storage.
func NewCartRetentionJob(params CartRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	if params.KeyPrefix == "" {
		return nil, fmt.Errorf("cart key prefix required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultCartRetention
	}
	return &cartRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		carts:     params.Carts,
		prefix:    params.KeyPrefix,
		retention: retention,
		now:       time.Now,
	}, nil
}

type cartRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	carts     cartPruner
	prefix    string
	retention time.Duration
	now       func() time.Time
}

func (j *cartRetentionJob) Name() string { return "cart-retention" }

func (j *cartRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.carts.DeleteOlderThan(ctx, tx, j.prefix, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("cart retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"key_prefix":   j.prefix,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "cart retention complete")
	return nil
}
