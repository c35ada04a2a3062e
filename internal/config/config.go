// Package config loads superheroes settings.
//
// Values are resolved in order, later sources winning:
//  1. defaults
//  2. the YAML file ($SUPERHEROES_CONFIG, else ./superheroes.yaml when present)
//  3. SUPERHEROES_* environment variables
//  4. command line flags, applied by the caller
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables.
const (
	EnvConfigPath  = "SUPERHEROES_CONFIG"
	EnvDatabaseURL = "SUPERHEROES_DATABASE_URL"
	EnvAddr        = "SUPERHEROES_ADDR"
	EnvLogLevel    = "SUPERHEROES_LOG_LEVEL"
	EnvStore       = "SUPERHEROES_STORE"
	EnvMaxConns    = "SUPERHEROES_DATABASE_MAX_CONNS"
)

// ConfigFileName is looked up in the working directory.
const ConfigFileName = "superheroes.yaml"

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the full application configuration.
type Config struct {
	Database      DatabaseConfig `yaml:"database"`
	Server        ServerConfig   `yaml:"server"`
	Log           LogConfig      `yaml:"log"`
	MigrationsDir string         `yaml:"migrations_dir"`
	Store         string         `yaml:"store"`
}

// DatabaseConfig holds PostgreSQL pool settings.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database:      DatabaseConfig{MaxConns: 10},
		Server:        ServerConfig{Addr: ":5555"},
		Log:           LogConfig{Level: "info", Format: "text"},
		MigrationsDir: "./migrations",
		Store:         StorePostgres,
	}
}

// Load reads path, or the discovered config file when path is empty, then
// applies environment overrides. A missing discovered file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	return ""
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store = v
	}
	if v := os.Getenv(EnvMaxConns); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxConns, err)
		}
		c.Database.MaxConns = int32(n)
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("store must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store))
	}
	if c.Database.MinConns > c.Database.MaxConns && c.Database.MaxConns > 0 {
		errs = append(errs, fmt.Errorf("database.min_conns %d exceeds max_conns %d", c.Database.MinConns, c.Database.MaxConns))
	}
	return errors.Join(errs...)
}

// Save writes c as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
