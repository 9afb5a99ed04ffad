package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Intake   IntakeConfig
	Policy   PolicyConfig
	Refund   RefundConfig
	Catalog  CatalogConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings. Redis backs the per-event
// processing locks when enabled; otherwise an in-process locker is used.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings for the review/query endpoints
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	TrustedProxies    []string
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// IntakeConfig holds inbound event intake settings. The webhook secret is
// the shared HMAC key; MaxConcurrentEvents bounds the worker pool.
type IntakeConfig struct {
	WebhookSecret       string
	MaxConcurrentEvents int
	EventLockTTL        time.Duration
}

// PolicyConfig holds the static per-deployment return policy
type PolicyConfig struct {
	ReturnWindowDays            int
	AllowedReasons              []string
	RestockingFeePercent        float64
	AutoApproveVIP              bool
	AutoApproveDamagedOnArrival bool
}

// RefundConfig holds refund execution settings
type RefundConfig struct {
	Endpoint    string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
}

// CatalogConfig holds order lookup settings
type CatalogConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with RETURNS_ prefix (e.g., RETURNS_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("RETURNS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
		},
		Intake: IntakeConfig{
			WebhookSecret:       v.GetString("intake.webhook_secret"),
			MaxConcurrentEvents: v.GetInt("intake.max_concurrent_events"),
			EventLockTTL:        v.GetDuration("intake.event_lock_ttl"),
		},
		Policy: PolicyConfig{
			ReturnWindowDays:            v.GetInt("policy.return_window_days"),
			AllowedReasons:              v.GetStringSlice("policy.allowed_reasons"),
			RestockingFeePercent:        v.GetFloat64("policy.restocking_fee_percent"),
			AutoApproveVIP:              v.GetBool("policy.auto_approve_vip"),
			AutoApproveDamagedOnArrival: v.GetBool("policy.auto_approve_damaged_on_arrival"),
		},
		Refund: RefundConfig{
			Endpoint:    v.GetString("refund.endpoint"),
			APIKey:      v.GetString("refund.api_key"),
			Timeout:     v.GetDuration("refund.timeout"),
			MaxAttempts: v.GetInt("refund.max_attempts"),
			BackoffBase: v.GetDuration("refund.backoff_base"),
		},
		Catalog: CatalogConfig{
			Endpoint: v.GetString("catalog.endpoint"),
			APIKey:   v.GetString("catalog.api_key"),
			Timeout:  v.GetDuration("catalog.timeout"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "returns-engine"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "returns"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "returns-engine"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB, webhook bodies are small
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Intake.MaxConcurrentEvents == 0 {
		cfg.Intake.MaxConcurrentEvents = 16
	}
	if cfg.Intake.EventLockTTL == 0 {
		cfg.Intake.EventLockTTL = 5 * time.Minute
	}
	if cfg.Policy.ReturnWindowDays == 0 {
		cfg.Policy.ReturnWindowDays = 30
	}
	if len(cfg.Policy.AllowedReasons) == 0 {
		cfg.Policy.AllowedReasons = []string{
			"defective", "wrong_size", "wrong_color", "not_as_described",
			"damaged_in_shipping", "changed_mind", "duplicate_order",
		}
	}
	if cfg.Refund.Timeout == 0 {
		cfg.Refund.Timeout = 10 * time.Second
	}
	if cfg.Refund.MaxAttempts == 0 {
		cfg.Refund.MaxAttempts = 3
	}
	if cfg.Refund.BackoffBase == 0 {
		cfg.Refund.BackoffBase = 500 * time.Millisecond
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 5 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Policy.RestockingFeePercent < 0 || c.Policy.RestockingFeePercent > 100 {
		return fmt.Errorf("policy.restocking_fee_percent must be between 0 and 100, got %f", c.Policy.RestockingFeePercent)
	}
	if c.Refund.MaxAttempts < 1 {
		return fmt.Errorf("refund.max_attempts must be at least 1")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Intake.WebhookSecret == "" {
			return fmt.Errorf("intake.webhook_secret is required in production")
		}
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Refund.Endpoint == "" {
			return fmt.Errorf("refund.endpoint is required in production")
		}
		if c.Catalog.Endpoint == "" {
			return fmt.Errorf("catalog.endpoint is required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
