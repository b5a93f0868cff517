package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Paystack     PaystackConfig
	Webhook      WebhookConfig
	Cron         CronConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POTHOLE_APP_ENV" required:"true"`
	Port         string `envconfig:"POTHOLE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"POTHOLE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POTHOLE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"POTHOLE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"POTHOLE_DB_DSN"`
	Driver string `envconfig:"POTHOLE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"POTHOLE_DB_HOST"`
	LegacyPort     int    `envconfig:"POTHOLE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"POTHOLE_DB_USER"`
	LegacyPassword string `envconfig:"POTHOLE_DB_PASSWORD"`
	LegacyName     string `envconfig:"POTHOLE_DB_NAME"`
	LegacySSLMode  string `envconfig:"POTHOLE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"POTHOLE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POTHOLE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POTHOLE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POTHOLE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"POTHOLE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"POTHOLE_REDIS_ADDR"`
	Password     string        `envconfig:"POTHOLE_REDIS_PASSWORD"`
	DB           int           `envconfig:"POTHOLE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POTHOLE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POTHOLE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POTHOLE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POTHOLE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POTHOLE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type PaystackConfig struct {
	SecretKey     string `envconfig:"POTHOLE_PAYSTACK_SECRET_KEY" required:"true"`
	WebhookSecret string `envconfig:"POTHOLE_PAYSTACK_WEBHOOK_SECRET"`
	Env           string `envconfig:"POTHOLE_PAYSTACK_ENV" default:"test"`
}

// Environment returns the normalized Paystack environment (test/live).
func (p PaystackConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	if env == "" {
		return "test"
	}
	return env
}

// SigningSecret returns the key used to verify webhook signatures. Paystack
// signs payloads with the account secret key unless a dedicated secret is set.
func (p PaystackConfig) SigningSecret() string {
	if secret := strings.TrimSpace(p.WebhookSecret); secret != "" {
		return secret
	}
	return strings.TrimSpace(p.SecretKey)
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"POTHOLE_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"POTHOLE_CRON_INTERVAL" default:"1h"`
	ReconcileLimit    int           `envconfig:"POTHOLE_CRON_RECONCILE_LIMIT" default:"250"`
	ReconcileLookback time.Duration `envconfig:"POTHOLE_CRON_RECONCILE_LOOKBACK" default:"168h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"POTHOLE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
