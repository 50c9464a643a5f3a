package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Checkout     CheckoutConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.ParseShippingFee(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPCANVAS_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPCANVAS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPCANVAS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPCANVAS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPCANVAS_DB_DSN"`
	Driver string `envconfig:"SHOPCANVAS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SHOPCANVAS_DB_HOST"`
	Port     int    `envconfig:"SHOPCANVAS_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPCANVAS_DB_USER"`
	Password string `envconfig:"SHOPCANVAS_DB_PASSWORD"`
	Name     string `envconfig:"SHOPCANVAS_DB_NAME"`
	SSLMode  string `envconfig:"SHOPCANVAS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPCANVAS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPCANVAS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPCANVAS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPCANVAS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("db config requires either SHOPCANVAS_DB_DSN or host/user/name")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPCANVAS_REDIS_URL"`
	Address      string        `envconfig:"SHOPCANVAS_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPCANVAS_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPCANVAS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPCANVAS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPCANVAS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPCANVAS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPCANVAS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPCANVAS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPCANVAS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPCANVAS_JWT_ISSUER" default:"shopcanvas"`
	ExpirationMinutes int    `envconfig:"SHOPCANVAS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPCANVAS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPCANVAS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPCANVAS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPCANVAS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPCANVAS_ARGON_KEY_LEN" default:"32"`
}

// CheckoutConfig carries checkout pricing knobs. Shipping is a flat fee today;
// if it ever becomes variable the order header must store it explicitly.
type CheckoutConfig struct {
	ShippingFee        string        `envconfig:"SHOPCANVAS_CHECKOUT_SHIPPING_FEE" default:"2.000"`
	CartTTL            time.Duration `envconfig:"SHOPCANVAS_CART_TTL" default:"72h"`
	SubmitGuardWindow  time.Duration `envconfig:"SHOPCANVAS_CHECKOUT_SUBMIT_GUARD" default:"10s"`
	shippingFeeDecimal decimal.Decimal
}

// ParseShippingFee materializes the decimal fee from its env string. Load
// calls it automatically; hand-built configs must call it before use.
func (c *CheckoutConfig) ParseShippingFee() error {
	fee, err := decimal.NewFromString(c.ShippingFee)
	if err != nil {
		return fmt.Errorf("parsing shipping fee %q: %w", c.ShippingFee, err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("shipping fee cannot be negative")
	}
	c.shippingFeeDecimal = fee
	return nil
}

// ShippingFeeAmount returns the parsed flat shipping fee.
func (c CheckoutConfig) ShippingFeeAmount() decimal.Decimal {
	return c.shippingFeeDecimal
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SHOPCANVAS_CORS_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPCANVAS_AUTO_MIGRATE" default:"false"`
}
