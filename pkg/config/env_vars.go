package config

const EnvPrefix = "AUREVO"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageKindMemory = "memory"
	StorageKindFile   = "file"
	StorageKindRedis  = "redis"
	StorageKindSQL    = "sql"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

const (
	EnvAppEnv                 = "AUREVO_APP_ENV"
	EnvPort                   = "AUREVO_APP_PORT"
	EnvLogLevel               = "AUREVO_LOG_LEVEL"
	EnvStorageKind            = "AUREVO_STORAGE_KIND"
	EnvStorageDir             = "AUREVO_STORAGE_DIR"
	EnvDBDriver               = "AUREVO_DB_DRIVER"
	EnvDBDSN                  = "AUREVO_DB_DSN"
	EnvRedisURL               = "AUREVO_REDIS_URL"
	EnvRedisAddr              = "AUREVO_REDIS_ADDR"
	EnvCheckoutEndpointURL    = "AUREVO_CHECKOUT_ENDPOINT_URL"
	EnvCheckoutRequestTimeout = "AUREVO_CHECKOUT_REQUEST_TIMEOUT"
	EnvCheckoutMaxRetries     = "AUREVO_CHECKOUT_MAX_RETRIES"
	EnvCheckoutRetryBaseDelay = "AUREVO_CHECKOUT_RETRY_BASE_DELAY"
	EnvCheckoutValidPINs      = "AUREVO_CHECKOUT_VALID_PINS"
	EnvCronStaleOrderAfter    = "AUREVO_CRON_STALE_ORDER_AFTER"
)
