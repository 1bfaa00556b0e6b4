package storage

import (
	"fmt"
	"strings"

	"github.com/aurevo/storefront/pkg/config"
	"github.com/aurevo/storefront/pkg/db"
	pkgredis "github.com/aurevo/storefront/pkg/redis"
)

// Deps carries the shared clients a backend may bind to.
type Deps struct {
	DB    *db.Client
	Redis *pkgredis.Client
}

// OpenBackend selects the backend named by cfg.Kind.
func OpenBackend(cfg config.StorageConfig, deps Deps) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case config.StorageKindMemory:
		return NewMemoryBackend(), nil
	case config.StorageKindFile:
		return NewFileBackend(cfg.Dir)
	case config.StorageKindRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("redis storage requires a redis client")
		}
		return NewRedisBackend(deps.Redis, 0), nil
	case config.StorageKindSQL, "":
		if deps.DB == nil {
			return nil, fmt.Errorf("sql storage requires a database client")
		}
		return NewSQLBackend(deps.DB.DB()), nil
	default:
		return nil, fmt.Errorf("unsupported storage kind %q", cfg.Kind)
	}
}
