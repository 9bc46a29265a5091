package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every environment variable the platform reads.
const EnvPrefix = "truckbite"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Square       SquareConfig
	Orders       OrdersConfig
	Fees         FeesConfig
	Escalation   EscalationConfig
	Location     LocationConfig
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
	Env          string `envconfig:"TRUCKBITE_APP_ENV" required:"true"`
	Port         string `envconfig:"TRUCKBITE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRUCKBITE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRUCKBITE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TRUCKBITE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TRUCKBITE_DB_DSN"`
	Driver string `envconfig:"TRUCKBITE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TRUCKBITE_DB_HOST"`
	Port     int    `envconfig:"TRUCKBITE_DB_PORT" default:"5432"`
	User     string `envconfig:"TRUCKBITE_DB_USER"`
	Password string `envconfig:"TRUCKBITE_DB_PASSWORD"`
	Name     string `envconfig:"TRUCKBITE_DB_NAME"`
	SSLMode  string `envconfig:"TRUCKBITE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRUCKBITE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRUCKBITE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRUCKBITE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRUCKBITE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRUCKBITE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRUCKBITE_REDIS_ADDR"`
	Password     string        `envconfig:"TRUCKBITE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRUCKBITE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRUCKBITE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRUCKBITE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRUCKBITE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRUCKBITE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRUCKBITE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SquareConfig struct {
	AccessToken   string `envconfig:"TRUCKBITE_SQUARE_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"TRUCKBITE_SQUARE_WEBHOOK_SECRET"`
	Env           string `envconfig:"TRUCKBITE_SQUARE_ENV" default:"sandbox"`
	LocationID    string `envconfig:"TRUCKBITE_SQUARE_LOCATION_ID"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type OrdersConfig struct {
	SequenceBase       int64         `envconfig:"TRUCKBITE_ORDERS_SEQUENCE_BASE" default:"100"`
	SequenceRetries    int           `envconfig:"TRUCKBITE_ORDERS_SEQUENCE_RETRIES" default:"5"`
	MaxItems           int           `envconfig:"TRUCKBITE_ORDERS_MAX_ITEMS" default:"25"`
	MaxQtyPerItem      int           `envconfig:"TRUCKBITE_ORDERS_MAX_QTY_PER_ITEM" default:"99"`
	MaxScheduleAdvance time.Duration `envconfig:"TRUCKBITE_ORDERS_MAX_SCHEDULE_ADVANCE" default:"168h"`
}

type FeesConfig struct {
	PlatformPercent string        `envconfig:"TRUCKBITE_FEES_PLATFORM_PERCENT" default:"6.5"`
	TipPercent      string        `envconfig:"TRUCKBITE_FEES_TIP_PERCENT" default:"2.0"`
	TrialWindow     time.Duration `envconfig:"TRUCKBITE_FEES_TRIAL_WINDOW" default:"720h"`
}

type EscalationConfig struct {
	CheckDelays  []time.Duration `envconfig:"TRUCKBITE_ESCALATION_CHECK_DELAYS" default:"5m,10m,15m"`
	PollInterval time.Duration   `envconfig:"TRUCKBITE_ESCALATION_POLL_INTERVAL" default:"30s"`
	ClaimBatch   int             `envconfig:"TRUCKBITE_ESCALATION_CLAIM_BATCH" default:"50"`
}

type LocationConfig struct {
	GracePeriod   time.Duration `envconfig:"TRUCKBITE_LOCATION_GRACE_PERIOD" default:"15m"`
	MatchRadiusM  float64       `envconfig:"TRUCKBITE_LOCATION_MATCH_RADIUS_M" default:"150"`
	SweepInterval time.Duration `envconfig:"TRUCKBITE_LOCATION_SWEEP_INTERVAL" default:"5m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TRUCKBITE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TRUCKBITE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		"TRUCKBITE_DB_HOST": db.Host,
		"TRUCKBITE_DB_USER": db.User,
		"TRUCKBITE_DB_NAME": db.Name,
	}
	for _, key := range []string{"TRUCKBITE_DB_HOST", "TRUCKBITE_DB_USER", "TRUCKBITE_DB_NAME"} {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either TRUCKBITE_DB_DSN or %s are required", strings.Join(missing, ", "))
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
