package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "HARVEST"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv           = "HARVEST_APP_ENV"
	EnvPort             = "HARVEST_APP_PORT"
	EnvCartBackend      = "HARVEST_CART_BACKEND"
	EnvCartStorageKey   = "HARVEST_CART_STORAGE_KEY"
	EnvCartFileDir      = "HARVEST_CART_FILE_DIR"
	EnvCartOpTimeout    = "HARVEST_CART_OP_TIMEOUT"
	EnvCartSessionIdle  = "HARVEST_CART_SESSION_IDLE_TTL"
	EnvCartRedisTTL     = "HARVEST_CART_REDIS_TTL"
	EnvDBDSN            = "HARVEST_DB_DSN"
	EnvRedisURL         = "HARVEST_REDIS_URL"
	EnvRedisAddr        = "HARVEST_REDIS_ADDR"
	EnvCheckoutBaseURL  = "HARVEST_CHECKOUT_BASE_URL"
	EnvCheckoutCurrency = "HARVEST_CHECKOUT_CURRENCY"
	EnvCORSOrigins      = "HARVEST_CORS_ORIGINS"
)

// Storage backends accepted by HARVEST_CART_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	App          AppConfig
	Cart         CartConfig
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

// Load reads HARVEST_* variables and validates backend prerequisites.
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
	Env          string `envconfig:"HARVEST_APP_ENV" required:"true"`
	Port         string `envconfig:"HARVEST_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"HARVEST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HARVEST_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"HARVEST_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type CartConfig struct {
	StorageKey     string        `envconfig:"HARVEST_CART_STORAGE_KEY" default:"harvest_cart"`
	Backend        string        `envconfig:"HARVEST_CART_BACKEND" default:"memory"`
	FileDir        string        `envconfig:"HARVEST_CART_FILE_DIR" default:".harvest/carts"`
	OpTimeout      time.Duration `envconfig:"HARVEST_CART_OP_TIMEOUT" default:"2s"`
	SessionIdleTTL time.Duration `envconfig:"HARVEST_CART_SESSION_IDLE_TTL" default:"30m"`
	RedisTTL       time.Duration `envconfig:"HARVEST_CART_REDIS_TTL" default:"2160h"`
	InboxCapacity  int           `envconfig:"HARVEST_CART_INBOX_CAPACITY" default:"20"`
}

// NormalizedBackend returns the lower-cased backend name.
func (c CartConfig) NormalizedBackend() string {
	return strings.ToLower(strings.TrimSpace(c.Backend))
}

type DBConfig struct {
	DSN    string `envconfig:"HARVEST_DB_DSN"`
	Driver string `envconfig:"HARVEST_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"HARVEST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HARVEST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HARVEST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HARVEST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HARVEST_REDIS_URL"`
	Address      string        `envconfig:"HARVEST_REDIS_ADDR"`
	Password     string        `envconfig:"HARVEST_REDIS_PASSWORD"`
	DB           int           `envconfig:"HARVEST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HARVEST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HARVEST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HARVEST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HARVEST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HARVEST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CheckoutConfig struct {
	BaseURL  string `envconfig:"HARVEST_CHECKOUT_BASE_URL" default:"http://localhost:3000"`
	Currency string `envconfig:"HARVEST_CHECKOUT_CURRENCY" default:"usd"`
}

type CORSConfig struct {
	Origins []string `envconfig:"HARVEST_CORS_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HARVEST_AUTO_MIGRATE" default:"false"`
}

func (c *Config) validate() error {
	switch c.Cart.NormalizedBackend() {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s=%s requires %s or %s", EnvCartBackend, BackendRedis, EnvRedisURL, EnvRedisAddr)
		}
	case BackendPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s=%s requires %s", EnvCartBackend, BackendPostgres, EnvDBDSN)
		}
		c.DB.Driver = BackendPostgres
	case BackendSQLite:
		if c.DB.DSN == "" {
			c.DB.DSN = "file:harvest_cart.db?cache=shared"
		}
		c.DB.Driver = BackendSQLite
	default:
		return fmt.Errorf("unknown %s %q", EnvCartBackend, c.Cart.Backend)
	}

	if c.Cart.OpTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartOpTimeout)
	}
	if strings.TrimSpace(c.Cart.StorageKey) == "" {
		return fmt.Errorf("%s must not be empty", EnvCartStorageKey)
	}
	c.Checkout.BaseURL = strings.TrimRight(c.Checkout.BaseURL, "/")
	c.Checkout.Currency = strings.ToLower(strings.TrimSpace(c.Checkout.Currency))
	return nil
}
