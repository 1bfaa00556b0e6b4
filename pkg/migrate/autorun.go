package migrate

import (
	"context"
	"fmt"

	"github.com/aurevo/storefront/pkg/config"
	"github.com/aurevo/storefront/pkg/db"
	"github.com/aurevo/storefront/pkg/logger"
)

// MaybeAutoRun applies pending migrations at boot when AUREVO_DB_AUTO_MIGRATE is set.
// Production deployments are expected to run cmd/migrate instead.
func MaybeAutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.DB.AutoMigrate || cfg.App.IsProd() {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "db_driver": client.Driver()})
	logg.Info(ctx, "running goose migrations (auto-run)")

	if err := Run(ctx, sqlDB, client.Driver(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
