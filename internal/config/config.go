package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CARBON_MARKET"

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Driver is "postgres" (production) or "sqlite" (local development)
	Driver          string        `mapstructure:"driver"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int      `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int      `mapstructure:"idle_timeout"`  // in seconds
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// JWTSecret signs the HS256 bearer tokens issued after 2FA
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// APIKeys grant the admin role
	APIKeys []string `mapstructure:"api_keys"`
}

// SecurityConfig holds account security thresholds
type SecurityConfig struct {
	MaxFailedLoginAttempts int           `mapstructure:"max_failed_login_attempts"`
	LockoutDuration        time.Duration `mapstructure:"lockout_duration"`
	EmailCodeTTL           time.Duration `mapstructure:"email_code_ttl"`
	TwoFactorCodeTTL       time.Duration `mapstructure:"two_factor_code_ttl"`
	// LoginRatePerMinute limits auth requests per client IP
	LoginRatePerMinute int `mapstructure:"login_rate_per_minute"`
	LoginRateBurst     int `mapstructure:"login_rate_burst"`
}

// PlantationConfig holds plantation ledger configuration
type PlantationConfig struct {
	// DefaultNDVI is assigned when a plantation is registered without a measurement
	DefaultNDVI  float64 `mapstructure:"default_ndvi"`
	MaxImageSize int64   `mapstructure:"max_image_size"`
}

// SettlementConfig holds retry settings for conflicting writes
type SettlementConfig struct {
	MaxRetries     uint64        `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
}

// CloudflareConfig holds Cloudflare configuration
type CloudflareConfig struct {
	// AccountID is the Cloudflare account ID owning the Images bucket
	AccountID string `mapstructure:"account_id"`
	APIToken  string `mapstructure:"api_token"`
}

// NotifierConfig holds outbound notification configuration
type NotifierConfig struct {
	// Driver is "nats" to hand notifications to the mailer through JetStream or "log" to only log them
	Driver           string `mapstructure:"driver"`
	ContactRecipient string `mapstructure:"contact_recipient"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Security   SecurityConfig   `mapstructure:"security"`
	Plantation PlantationConfig `mapstructure:"plantation"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Cloudflare CloudflareConfig `mapstructure:"cloudflare"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Notifier   NotifierConfig   `mapstructure:"notifier"`
}

// BalanceSweeperConfig holds configuration for the balance reconciliation sweeper
type BalanceSweeperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Worker   WorkerConfig  `mapstructure:"worker"`
}

// SweeperConfig holds configuration for the sweeper program
type SweeperConfig struct {
	BaseConfig     `mapstructure:",squash"`
	Database       DatabaseConfig       `mapstructure:"database"`
	BalanceSweeper BalanceSweeperConfig `mapstructure:"balance_sweeper"`
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.allow_origins", []string{"*"})
	setDatabaseDefaults(v)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("security.max_failed_login_attempts", 5)
	v.SetDefault("security.lockout_duration", "15m")
	v.SetDefault("security.email_code_ttl", "15m")
	v.SetDefault("security.two_factor_code_ttl", "10m")
	v.SetDefault("security.login_rate_per_minute", 30)
	v.SetDefault("security.login_rate_burst", 10)
	v.SetDefault("plantation.default_ndvi", 0)
	v.SetDefault("plantation.max_image_size", 10*1024*1024) // 10MB
	v.SetDefault("settlement.max_retries", 5)
	v.SetDefault("settlement.initial_backoff", "20ms")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "MARKETPLACE")
	v.SetDefault("nats.connection_name", "carbon-marketplace-api")
	v.SetDefault("nats.publish_timeout", "5s")
	v.SetDefault("notifier.driver", "log")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Database.validate(); err != nil {
		return nil, err
	}
	if config.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	return &config, nil
}

// LoadSweeperConfig loads configuration for the sweeper program
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("balance_sweeper.interval", "10m")
	v.SetDefault("balance_sweeper.worker.pool_size", 8)
	v.SetDefault("balance_sweeper.worker.queue_size", 256)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg SweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Database.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.sqlite_path", "carbon_marketplace.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.auto_migrate", true)
}

// readConfig reads the config file, falling back to defaults and environment variables when none exists
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in the current directory, the service directory and config/
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.driver",
		"database.sqlite_path",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.auto_migrate",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.publish_timeout",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.allow_origins",
		// Auth
		"auth.jwt_secret",
		"auth.token_ttl",
		"auth.api_keys",
		// Security
		"security.max_failed_login_attempts",
		"security.lockout_duration",
		"security.email_code_ttl",
		"security.two_factor_code_ttl",
		"security.login_rate_per_minute",
		"security.login_rate_burst",
		// Marketplace
		"plantation.default_ndvi",
		"plantation.max_image_size",
		"settlement.max_retries",
		"settlement.initial_backoff",
		// Cloudflare
		"cloudflare.account_id",
		"cloudflare.api_token",
		// Notifier
		"notifier.driver",
		"notifier.contact_recipient",
		// Balance sweeper
		"balance_sweeper.interval",
		"balance_sweeper.worker.pool_size",
		"balance_sweeper.worker.queue_size",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

func (c *DatabaseConfig) validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" {
			return errors.New("database.host is required for the postgres driver")
		}
		if c.DBName == "" {
			return errors.New("database.dbname is required for the postgres driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("database.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database.driver: %q", c.Driver)
	}

	return nil
}

// DSN returns the database connection string for the configured driver
func (c *DatabaseConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return c.SQLitePath
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
