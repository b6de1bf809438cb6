package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server       ServerConfig
	App          AppConfig
	Redis        RedisConfig
	Database     DatabaseConfig
	AccountDB    AccountDBConfig
	Collaborator CollaboratorConfig
	Saga         SagaConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"hdgstudio-market-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	LoginKey    string `envconfig:"LOGIN_KEY" default:""` // Admin dashboard login key
}

// RedisConfig holds settings for the reservation store and session tokens.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`

	ReservationPrefix string        `envconfig:"RESERVATION_KEY_PREFIX" default:"hdgstudio:account"`
	ReconcileInterval time.Duration `envconfig:"RESERVATION_RECONCILE_INTERVAL" default:"5m"`
}

// DatabaseConfig holds MySQL connection settings (posts, withdrawals,
// finance records, and the default account backend).
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"hdgstudio"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// AccountDBConfig selects and configures the account repository backend.
type AccountDBConfig struct {
	Type string `envconfig:"ACCOUNT_DB_TYPE" default:"mysql"` // mysql, sqlite, or postgres
	Path string `envconfig:"ACCOUNT_DB_PATH" default:"./data/accounts.db"`
	// PostgreSQL settings
	Host     string `envconfig:"ACCOUNT_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"ACCOUNT_DB_PORT" default:"5432"`
	Name     string `envconfig:"ACCOUNT_DB_NAME" default:"hdgstudio"`
	User     string `envconfig:"ACCOUNT_DB_USER" default:"postgres"`
	Password string `envconfig:"ACCOUNT_DB_PASS" default:""`
	SSLMode  string `envconfig:"ACCOUNT_DB_SSLMODE" default:"disable"`
}

// CollaboratorConfig holds the endpoints of the external fund-transfer
// and identity services the saga calls.
type CollaboratorConfig struct {
	FundBaseURL     string        `envconfig:"FUND_SERVICE_URL" default:"http://localhost:9001"`
	IdentityBaseURL string        `envconfig:"IDENTITY_SERVICE_URL" default:"http://localhost:9002"`
	Timeout         time.Duration `envconfig:"COLLABORATOR_TIMEOUT" default:"10s"`
}

// SagaConfig holds purchase saga policy knobs.
type SagaConfig struct {
	CommitRetries int           `envconfig:"SAGA_COMMIT_RETRIES" default:"3"`
	CommitBackoff time.Duration `envconfig:"SAGA_COMMIT_BACKOFF" default:"500ms"`
	FeeRate       string        `envconfig:"SAGA_FEE_RATE" default:"0.02"` // platform fee retained per sale
}

// PostgresDSN returns the PostgreSQL connection string.
func (a *AccountDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		a.User, a.Password, a.Host, a.Port, a.Name, a.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Address returns the Redis address in host:port format.
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
