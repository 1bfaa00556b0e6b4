package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	minShutdownTimeout = 20 * time.Second
	shutdownGrace      = 5 * time.Second
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	DB       DBConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
	Breaker  BreakerConfig
	Sessions SessionsConfig
	CORS     CORSConfig
	Cron     CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AUREVO_APP_ENV" default:"dev"`
	Port         string `envconfig:"AUREVO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AUREVO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AUREVO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the durable key-value backend that holds carts.
type StorageConfig struct {
	Kind    string `envconfig:"AUREVO_STORAGE_KIND" default:"sql"`
	Dir     string `envconfig:"AUREVO_STORAGE_DIR" default:".aurevo"`
	CartKey string `envconfig:"AUREVO_STORAGE_CART_KEY" default:"aurevo_cart"`
}

type DBConfig struct {
	Driver string `envconfig:"AUREVO_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"AUREVO_DB_DSN" default:"file:aurevo.db?cache=shared"`

	AutoMigrate bool `envconfig:"AUREVO_DB_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"AUREVO_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"AUREVO_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"AUREVO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AUREVO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the ledger and sql storage run on the embedded driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"AUREVO_REDIS_URL"`
	Address      string        `envconfig:"AUREVO_REDIS_ADDR"`
	Password     string        `envconfig:"AUREVO_REDIS_PASSWORD"`
	DB           int           `envconfig:"AUREVO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AUREVO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AUREVO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AUREVO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AUREVO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AUREVO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig drives validation and the order submission pipeline.
type CheckoutConfig struct {
	EndpointURL      string        `envconfig:"AUREVO_CHECKOUT_ENDPOINT_URL" required:"true"`
	RequestTimeout   time.Duration `envconfig:"AUREVO_CHECKOUT_REQUEST_TIMEOUT" default:"15s"`
	MaxRetries       int           `envconfig:"AUREVO_CHECKOUT_MAX_RETRIES" default:"3"`
	RetryBaseDelay   time.Duration `envconfig:"AUREVO_CHECKOUT_RETRY_BASE_DELAY" default:"1s"`
	ValidPINs        []string      `envconfig:"AUREVO_CHECKOUT_VALID_PINS" default:"735101"`
	DeliveryLocation string        `envconfig:"AUREVO_CHECKOUT_DELIVERY_LOCATION" default:"Jalpaiguri"`
	PaymentMethod    string        `envconfig:"AUREVO_CHECKOUT_PAYMENT_METHOD" default:"Prepaid"`
	OrderIDPrefix    string        `envconfig:"AUREVO_CHECKOUT_ORDER_ID_PREFIX" default:"AUR"`
}

// WorstCaseSubmission bounds how long one checkout can keep an order Pending.
func (c CheckoutConfig) WorstCaseSubmission() time.Duration {
	retries := time.Duration(c.MaxRetries)
	return retries*c.RequestTimeout + retries*retries*c.RetryBaseDelay
}

// ShutdownTimeout is how long the API waits for in-flight requests on exit.
// It always covers a full checkout so a submission is never cut mid-retry.
func (c *Config) ShutdownTimeout() time.Duration {
	drain := c.Checkout.WorstCaseSubmission() + shutdownGrace
	if drain < minShutdownTimeout {
		return minShutdownTimeout
	}
	return drain
}

// BreakerConfig tunes the circuit breaker guarding the order endpoint.
type BreakerConfig struct {
	ConsecutiveFailures uint32        `envconfig:"AUREVO_BREAKER_CONSECUTIVE_FAILURES" default:"6"`
	OpenTimeout         time.Duration `envconfig:"AUREVO_BREAKER_OPEN_TIMEOUT" default:"30s"`
}

type SessionsConfig struct {
	IdleTTL          time.Duration `envconfig:"AUREVO_SESSIONS_IDLE_TTL" default:"2h"`
	NotificationFeed int           `envconfig:"AUREVO_SESSIONS_NOTIFICATION_FEED" default:"20"`
}

// CronConfig schedules the housekeeping worker.
type CronConfig struct {
	Interval        time.Duration `envconfig:"AUREVO_CRON_INTERVAL" default:"1h"`
	StaleOrderAfter time.Duration `envconfig:"AUREVO_CRON_STALE_ORDER_AFTER" default:"30m"`
	CartRetention   time.Duration `envconfig:"AUREVO_CRON_CART_RETENTION" default:"720h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"AUREVO_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (c *Config) validate() error {
	if c.Checkout.MaxRetries < 1 {
		return fmt.Errorf("%s must be at least 1", EnvCheckoutMaxRetries)
	}
	if c.Checkout.RequestTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvCheckoutRequestTimeout)
	}
	if c.Cron.StaleOrderAfter <= c.Checkout.WorstCaseSubmission() {
		return fmt.Errorf("%s must exceed the longest possible submission (%s)", EnvCronStaleOrderAfter, c.Checkout.WorstCaseSubmission())
	}
	if len(c.Checkout.ValidPINs) == 0 {
		return fmt.Errorf("%s requires at least one code", EnvCheckoutValidPINs)
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Kind)) {
	case StorageKindMemory, StorageKindFile, StorageKindSQL:
	case StorageKindRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for redis storage", EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageKind, c.Storage.Kind)
	}
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case DBDriverSQLite, DBDriverPostgres:
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, c.DB.Driver)
	}
	return nil
}
