package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	PortOne   PortOneConfig   `yaml:"portone"`
	Payment   PaymentConfig   `yaml:"payment"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSec int    `yaml:"write_timeout_seconds"`
	DefaultPageSize int32  `yaml:"default_page_size"`
}

// GRPCConfig holds the health endpoint listener. Port 0 disables it.
type GRPCConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // "postgres", "pgx" or "memory"
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	ConnRetries  int    `yaml:"connect_retries"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret             string `yaml:"secret"`
	AccessTokenExpiry  int    `yaml:"access_token_expiry_minutes"`
	RefreshTokenExpiry int    `yaml:"refresh_token_expiry_minutes"`
}

type AuthConfig struct {
	Provider               string   `yaml:"provider"` // "local" or "firebase"
	FirebaseProjectID      string   `yaml:"firebase_project_id"`
	FirebaseCredentialFile string   `yaml:"firebase_credentials_file"`
	AdminEmails            []string `yaml:"admin_emails"` // promoted to admin on registration
}

// RedisConfig is optional; an empty URL disables the stats cache.
type RedisConfig struct {
	URL         string `yaml:"url"`
	StatsTTLSec int    `yaml:"stats_ttl_seconds"`
}

type PortOneConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	TimeoutSec int    `yaml:"timeout_seconds"`
}

type PaymentConfig struct {
	PendingTTLMinutes int `yaml:"pending_ttl_minutes"`
}

type GeminiConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_seconds"`
}

type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// SchedulerConfig contains cron schedule settings (six fields, seconds first)
type SchedulerConfig struct {
	ReconcileLedger       string `yaml:"reconcile_ledger"`
	TakeBalanceSnapshots  string `yaml:"take_balance_snapshots"`
	ExpirePendingPayments string `yaml:"expire_pending_payments"`
}

// Load reads configuration from a YAML file. A .env file in the working
// directory is loaded first so its values take part in the env overrides.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	setString(&c.Server.Host, "SERVER_HOST")
	setInt(&c.Server.Port, "SERVER_PORT")
	setInt(&c.GRPC.Port, "GRPC_PORT")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSL_MODE")

	setString(&c.JWT.Secret, "JWT_SECRET")

	setString(&c.Auth.Provider, "AUTH_PROVIDER")
	setString(&c.Auth.FirebaseProjectID, "FIREBASE_PROJECT_ID")
	setString(&c.Auth.FirebaseCredentialFile, "FIREBASE_CREDENTIALS_FILE")

	setString(&c.Redis.URL, "REDIS_URL")

	setString(&c.PortOne.BaseURL, "PORTONE_BASE_URL")
	setString(&c.PortOne.APIKey, "PORTONE_API_KEY")
	setString(&c.PortOne.APISecret, "PORTONE_API_SECRET")

	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")

	setString(&c.SendGrid.APIKey, "SENDGRID_API_KEY")
	setString(&c.SendGrid.FromEmail, "SENDGRID_FROM_EMAIL")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
}

// Validate fills defaults and checks the configuration
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.GRPC.Port)
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = 15
	}
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = 60
	}
	if c.Server.DefaultPageSize == 0 {
		c.Server.DefaultPageSize = 20
	}

	switch c.Database.Driver {
	case "":
		c.Database.Driver = "postgres"
		fallthrough
	case "postgres", "pgx":
		if c.Database.Host == "" {
			return errors.New("database host is required")
		}
		if c.Database.User == "" {
			return errors.New("database user is required")
		}
		if c.Database.Database == "" {
			return errors.New("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
		if c.Database.ConnRetries == 0 {
			c.Database.ConnRetries = 10
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.JWT.Secret == "" {
		return errors.New("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}
	if c.JWT.RefreshTokenExpiry == 0 {
		c.JWT.RefreshTokenExpiry = 60 * 24 * 14
	}

	switch c.Auth.Provider {
	case "":
		c.Auth.Provider = "local"
	case "local":
	case "firebase":
		if c.Auth.FirebaseProjectID == "" {
			return errors.New("firebase project id is required when auth provider is firebase")
		}
	default:
		return fmt.Errorf("unsupported auth provider: %q", c.Auth.Provider)
	}

	if c.Redis.StatsTTLSec == 0 {
		c.Redis.StatsTTLSec = 60
	}

	if c.PortOne.BaseURL == "" {
		c.PortOne.BaseURL = "https://api.iamport.kr"
	}
	if c.PortOne.TimeoutSec == 0 {
		c.PortOne.TimeoutSec = 10
	}
	if c.Payment.PendingTTLMinutes == 0 {
		c.Payment.PendingTTLMinutes = 60
	}

	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.TimeoutSec == 0 {
		c.Gemini.TimeoutSec = 45
	}
	if c.SendGrid.FromName == "" {
		c.SendGrid.FromName = "사주 분석"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid rate limit: %v", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
	}

	if c.Scheduler.ReconcileLedger == "" {
		c.Scheduler.ReconcileLedger = "0 0 3 * * *" // 3 AM UTC
	}
	if c.Scheduler.TakeBalanceSnapshots == "" {
		c.Scheduler.TakeBalanceSnapshots = "0 5 0 1 * *" // opening balances, 00:05 UTC on the 1st
	}
	if c.Scheduler.ExpirePendingPayments == "" {
		c.Scheduler.ExpirePendingPayments = "0 */10 * * * *"
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.GRPC.Port)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTokenExpiry) * time.Minute
}

func (c *Config) PendingPaymentTTL() time.Duration {
	return time.Duration(c.Payment.PendingTTLMinutes) * time.Minute
}
