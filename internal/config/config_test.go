package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0600))
	return configFile
}

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 20
  write_timeout: 20
  idle_timeout: 180
database:
  driver: postgres
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
auth:
  jwt_secret: "secret"
  token_ttl: "2h"
  api_keys:
    - "key1"
    - "key2"
security:
  max_failed_login_attempts: 3
  lockout_duration: "30m"
plantation:
  default_ndvi: 0.4
cloudflare:
  account_id: "acc"
  api_token: "token"
nats:
  url: "nats://localhost:4222"
notifier:
  driver: nats
  contact_recipient: "support@example.com"
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 180, cfg.Server.IdleTimeout)
				assert.Equal(t, "secret", cfg.Auth.JWTSecret)
				assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
				assert.Len(t, cfg.Auth.APIKeys, 2)
				assert.Equal(t, 3, cfg.Security.MaxFailedLoginAttempts)
				assert.Equal(t, 30*time.Minute, cfg.Security.LockoutDuration)
				assert.Equal(t, 15*time.Minute, cfg.Security.EmailCodeTTL)     // default
				assert.Equal(t, 10*time.Minute, cfg.Security.TwoFactorCodeTTL) // default
				assert.Equal(t, 0.4, cfg.Plantation.DefaultNDVI)
				assert.Equal(t, "acc", cfg.Cloudflare.AccountID)
				assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
				assert.Equal(t, "MARKETPLACE", cfg.NATS.StreamName) // default
				assert.Equal(t, "nats", cfg.Notifier.Driver)
				assert.Equal(t, "support@example.com", cfg.Notifier.ContactRecipient)
			},
		},
		{
			name: "sqlite with defaults",
			configFile: `
database:
  driver: sqlite
auth:
  jwt_secret: "secret"
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.False(t, cfg.Debug)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, DriverSQLite, cfg.Database.Driver)
				assert.Equal(t, "carbon_marketplace.db", cfg.Database.DSN())
				assert.True(t, cfg.Database.AutoMigrate)
				assert.Equal(t, 5, cfg.Security.MaxFailedLoginAttempts)
				assert.Equal(t, 15*time.Minute, cfg.Security.LockoutDuration)
				assert.Equal(t, 0.0, cfg.Plantation.DefaultNDVI)
				assert.Equal(t, uint64(5), cfg.Settlement.MaxRetries)
				assert.Equal(t, "log", cfg.Notifier.Driver)
				assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
			},
		},
		{
			name: "missing jwt secret",
			configFile: `
database:
  driver: sqlite
`,
			expectError: true,
		},
		{
			name: "postgres without host",
			configFile: `
database:
  driver: postgres
  dbname: testdb
auth:
  jwt_secret: "secret"
`,
			expectError: true,
		},
		{
			name: "unsupported driver",
			configFile: `
database:
  driver: mysql
auth:
  jwt_secret: "secret"
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadAPIConfig(writeConfig(t, tt.configFile), t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadSweeperConfig(t *testing.T) {
	cfg, err := LoadSweeperConfig(writeConfig(t, `
database:
  host: localhost
  dbname: testdb
balance_sweeper:
  interval: "1m"
`), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Database.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, time.Minute, cfg.BalanceSweeper.Interval)
	assert.Equal(t, 8, cfg.BalanceSweeper.Worker.WorkerPoolSize)
	assert.Equal(t, 256, cfg.BalanceSweeper.Worker.WorkerQueueSize)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "postgres",
			config: DatabaseConfig{
				Driver:   DriverPostgres,
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "p@ssw0rd!",
				DBName:   "testdb",
				SSLMode:  "require",
			},
			expected: "host=localhost port=5432 user=testuser password=p@ssw0rd! dbname=testdb sslmode=require",
		},
		{
			name: "sqlite",
			config: DatabaseConfig{
				Driver:     DriverSQLite,
				SQLitePath: "/tmp/market.db",
			},
			expected: "/tmp/market.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	envDir := filepath.Join(tmpDir, "env")
	require.NoError(t, os.MkdirAll(envDir, 0750))

	// Viper uses the CARBON_MARKET_ prefix
	envContent := `CARBON_MARKET_DEBUG=true
CARBON_MARKET_DATABASE_HOST=env-host
CARBON_MARKET_DATABASE_PORT=6543
CARBON_MARKET_DATABASE_DBNAME=env-db
CARBON_MARKET_AUTH_JWT_SECRET=env-secret
`
	require.NoError(t, os.WriteFile(filepath.Join(envDir, ".env"), []byte(envContent), 0600))

	// godotenv sets real process variables; unset them so other tests are unaffected
	t.Cleanup(func() {
		for _, key := range []string{
			"CARBON_MARKET_DEBUG",
			"CARBON_MARKET_DATABASE_HOST",
			"CARBON_MARKET_DATABASE_PORT",
			"CARBON_MARKET_DATABASE_DBNAME",
			"CARBON_MARKET_AUTH_JWT_SECRET",
		} {
			_ = os.Unsetenv(key)
		}
	})

	configPath := writeConfig(t, `
debug: false
database:
  host: file-host
  port: 5432
  dbname: file-db
`)

	cfg, err := LoadAPIConfig(configPath, envDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "env-db", cfg.Database.DBName)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}
