package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/joinql/internal/config"
	"github.com/satishbabariya/joinql/internal/core/query/domain"
)

const configYAML = `
database:
  provider: oracle
  url: oracle://scott:tiger@db:1521/orcl
  driver: godror
  convert_to_uppercase: true
  server_version: "19.3"
  max_connections: 20
session:
  log_queries: true
  retry_attempts: 5
  retry_delay: 250ms
debug: true
`

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Provider)
	assert.Equal(t, 10, cfg.Database.ConnectTimeout)
	assert.Equal(t, 3, cfg.Session.RetryAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Session.RetryDelay)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.File)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/etc/joinql.yaml", configYAML)

	cfg, err := config.Load(fs, "/etc/joinql.yaml")
	require.NoError(t, err)

	assert.Equal(t, "/etc/joinql.yaml", cfg.File)
	assert.Equal(t, config.DatabaseConfig{
		Provider:           "oracle",
		URL:                "oracle://scott:tiger@db:1521/orcl",
		Driver:             "godror",
		ConvertToUppercase: true,
		ServerVersion:      "19.3",
		MaxConnections:     20,
		ConnectTimeout:     10,
	}, cfg.Database)
	assert.Equal(t, config.SessionConfig{
		LogQueries:    true,
		RetryAttempts: 5,
		RetryDelay:    250 * time.Millisecond,
	}, cfg.Session)
	assert.True(t, cfg.Debug)

	db := cfg.ToDatabase()
	assert.Equal(t, "oracle", db.Provider)
	assert.True(t, db.ConvertToUppercase)
	assert.Equal(t, 20, db.MaxConnections)
	assert.Len(t, cfg.SessionOptions(), 2)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(afero.NewMemMapFs(), "/nope/joinql.yaml")
	assert.Error(t, err)
}

func TestLoad_Environment(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/etc/joinql.yaml", configYAML)
	t.Setenv(config.EnvName("database.provider"), "postgres")
	t.Setenv(config.EnvName("session.retry_attempts"), "7")

	cfg, err := config.Load(fs, "/etc/joinql.yaml")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Provider)
	assert.Equal(t, 7, cfg.Session.RetryAttempts)
	assert.Equal(t, "godror", cfg.Database.Driver)
}

func TestLoad_Dotenv(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, ".env", "JOINQL_DATABASE_PROVIDER=mysql\nJOINQL_DEBUG=true\nDATABASE_URL=root@tcp(localhost:3306)/app\n")
	writeFile(t, fs, ".env.local", "JOINQL_DATABASE_PROVIDER=postgres\n")

	t.Run("env files", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		cfg, err := config.Load(fs, "")
		require.NoError(t, err)

		assert.Equal(t, "postgres", cfg.Database.Provider)
		assert.True(t, cfg.Debug)
	})

	t.Run("database url from env file", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		require.NoError(t, os.Unsetenv("DATABASE_URL"))
		cfg, err := config.Load(fs, "")
		require.NoError(t, err)
		assert.Equal(t, "root@tcp(localhost:3306)/app", cfg.Database.URL)
	})

	t.Run("process environment wins", func(t *testing.T) {
		t.Setenv(config.EnvName("database.provider"), "sqlite")
		t.Setenv("DATABASE_URL", "file:app.db")
		cfg, err := config.Load(fs, "")
		require.NoError(t, err)

		assert.Equal(t, "sqlite", cfg.Database.Provider)
		assert.Equal(t, "file:app.db", cfg.Database.URL)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Database: config.DatabaseConfig{Provider: "pg"},
			Session:  config.SessionConfig{RetryAttempts: 1},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"unknown provider", func(c *config.Config) { c.Database.Provider = "db2" }},
		{"negative pool", func(c *config.Config) { c.Database.MaxConnections = -1 }},
		{"negative idle time", func(c *config.Config) { c.Database.MaxIdleTime = -1 }},
		{"negative timeout", func(c *config.Config) { c.Database.ConnectTimeout = -1 }},
		{"no attempts", func(c *config.Config) { c.Session.RetryAttempts = 0 }},
		{"negative delay", func(c *config.Config) { c.Session.RetryDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidArgument)
		})
	}
}
