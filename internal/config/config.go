// Package config loads joinql configuration from a yaml file, .env files and
// JOINQL_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/adapters/database/providers"
	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/session"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "JOINQL"
	// ConfigName is the base name of the config file searched for.
	ConfigName = "joinql"
)

// Config holds the application configuration.
type Config struct {
	Database DatabaseConfig
	Session  SessionConfig
	Debug    bool
	// File is the config file that was read, if any.
	File string
}

// DatabaseConfig selects and configures the database provider.
type DatabaseConfig struct {
	Provider           string
	URL                string
	Driver             string
	ConvertToUppercase bool
	ServerVersion      string
	MaxConnections     int
	MaxIdleTime        int
	ConnectTimeout     int
}

// SessionConfig configures command execution.
type SessionConfig struct {
	LogQueries    bool
	RetryAttempts int
	RetryDelay    time.Duration
}

var defaults = map[string]any{
	"database.provider":             providers.KeySQLite,
	"database.url":                  "",
	"database.driver":               "",
	"database.convert_to_uppercase": false,
	"database.server_version":       "",
	"database.max_connections":      0,
	"database.max_idle_time":        0,
	"database.connect_timeout":      10,
	"session.log_queries":           false,
	"session.retry_attempts":        3,
	"session.retry_delay":           "100ms",
	"debug":                         false,
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads configuration. When path is empty joinql.yaml is searched for
// in the working directory and ~/.config/joinql; a missing file is not an
// error. Values from .env and .env.local apply only to variables the process
// environment does not already set.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dotenv, err := readDotenv(fs)
	if err != nil {
		return nil, err
	}
	for key := range defaults {
		name := EnvName(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if value, ok := dotenv[name]; ok {
			v.Set(key, value)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Provider:           v.GetString("database.provider"),
			URL:                v.GetString("database.url"),
			Driver:             v.GetString("database.driver"),
			ConvertToUppercase: v.GetBool("database.convert_to_uppercase"),
			ServerVersion:      v.GetString("database.server_version"),
			MaxConnections:     v.GetInt("database.max_connections"),
			MaxIdleTime:        v.GetInt("database.max_idle_time"),
			ConnectTimeout:     v.GetInt("database.connect_timeout"),
		},
		Session: SessionConfig{
			LogQueries:    v.GetBool("session.log_queries"),
			RetryAttempts: v.GetInt("session.retry_attempts"),
			RetryDelay:    v.GetDuration("session.retry_delay"),
		},
		Debug: v.GetBool("debug"),
		File:  v.ConfigFileUsed(),
	}

	if cfg.Database.URL == "" {
		if url, ok := os.LookupEnv("DATABASE_URL"); ok {
			cfg.Database.URL = url
		} else {
			cfg.Database.URL = dotenv["DATABASE_URL"]
		}
	}

	return cfg, nil
}

// readDotenv parses .env and then .env.local, the latter taking precedence.
func readDotenv(fs afero.Fs) (map[string]string, error) {
	env := make(map[string]string)
	for _, name := range []string{".env", ".env.local"} {
		f, err := fs.Open(name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		values, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		for k, val := range values {
			env[k] = val
		}
	}
	return env, nil
}

// Validate checks the provider name and numeric settings.
func (c *Config) Validate() error {
	if _, err := providers.Normalize(c.Database.Provider); err != nil {
		return err
	}
	switch {
	case c.Database.MaxConnections < 0:
		return invalid("database.max_connections", c.Database.MaxConnections)
	case c.Database.MaxIdleTime < 0:
		return invalid("database.max_idle_time", c.Database.MaxIdleTime)
	case c.Database.ConnectTimeout < 0:
		return invalid("database.connect_timeout", c.Database.ConnectTimeout)
	case c.Session.RetryAttempts < 1:
		return invalid("session.retry_attempts", c.Session.RetryAttempts)
	case c.Session.RetryDelay < 0:
		return invalid("session.retry_delay", c.Session.RetryDelay)
	}
	return nil
}

func invalid(key string, value any) error {
	return domain.NewError(domain.ErrInvalidArgument, nil, "%s: invalid value %v", key, value)
}

// ToDatabase returns the provider configuration.
func (c *Config) ToDatabase() database.Config {
	return database.Config{
		Provider:           c.Database.Provider,
		URL:                c.Database.URL,
		Driver:             c.Database.Driver,
		ConvertToUppercase: c.Database.ConvertToUppercase,
		ServerVersion:      c.Database.ServerVersion,
		MaxConnections:     c.Database.MaxConnections,
		MaxIdleTime:        c.Database.MaxIdleTime,
		ConnectTimeout:     c.Database.ConnectTimeout,
	}
}

// SessionOptions returns the session options for the configuration.
func (c *Config) SessionOptions() []session.Option {
	return []session.Option{
		session.WithQueryLogging(c.Session.LogQueries),
		session.WithRetry(
			session.WithMaxAttempts(c.Session.RetryAttempts),
			session.WithInitialDelay(c.Session.RetryDelay),
		),
	}
}
