package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Cart     CartConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	UseSQLite   bool `envconfig:"STOREFRONT_DB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig carries the engine settings that are policy rather than data:
// the storage slot the snapshot lives under, the store currency, and the
// free-shipping threshold surfaced to the UI.
type CartConfig struct {
	StorageKey              string        `envconfig:"STOREFRONT_CART_STORAGE_KEY" default:"storefront:cart"`
	CurrencyCode            string        `envconfig:"STOREFRONT_CART_CURRENCY" default:"USD"`
	ShippingThresholdAmount string        `envconfig:"STOREFRONT_CART_SHIPPING_THRESHOLD" default:"50.00"`
	VariantFetchTimeout     time.Duration `envconfig:"STOREFRONT_CART_VARIANT_FETCH_TIMEOUT" default:"10s"`
}

func (c CartConfig) validate() error {
	if strings.TrimSpace(c.CurrencyCode) == "" {
		return fmt.Errorf("cart currency is required")
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("cart storage key is required")
	}
	return nil
}

// CheckoutConfig points at the two checkout backends whose completion status
// gates cart restoration.
type CheckoutConfig struct {
	PlatformBaseURL     string        `envconfig:"STOREFRONT_CHECKOUT_PLATFORM_URL" required:"true"`
	SubscriptionBaseURL string        `envconfig:"STOREFRONT_CHECKOUT_SUBSCRIPTION_URL" required:"true"`
	StatusTimeout       time.Duration `envconfig:"STOREFRONT_CHECKOUT_STATUS_TIMEOUT" default:"5s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.UseSQLite {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"STOREFRONT_DB_HOST": db.Host,
		"STOREFRONT_DB_USER": db.User,
		"STOREFRONT_DB_NAME": db.Name,
	}
	for _, key := range []string{"STOREFRONT_DB_HOST", "STOREFRONT_DB_USER", "STOREFRONT_DB_NAME"} {
		if parts[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either STOREFRONT_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
