// Package config holds the server configuration: where data lives, how
// loudly to log, and which audit backend records navigation events.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Audit backends.
const (
	AuditSQLite = "sqlite"
	AuditCSV    = "csv"
	AuditNone   = "none"
)

// Environment overrides, applied after the config file.
const (
	EnvDataDir      = "FORMNAV_DATA_DIR"
	EnvLogLevel     = "FORMNAV_LOG_LEVEL"
	EnvAuditBackend = "FORMNAV_AUDIT_BACKEND"
)

// AuditConfig selects where audit events go.
type AuditConfig struct {
	Backend string `yaml:"backend" validate:"required,oneof=sqlite csv none"`
	// CSVPath defaults to <data_dir>/audit.csv for the csv backend.
	CSVPath string `yaml:"csv_path,omitempty"`
}

// Config is the server configuration.
type Config struct {
	DataDir  string      `yaml:"data_dir" validate:"required"`
	LogLevel string      `yaml:"log_level" validate:"required,oneof=debug info warn error"`
	Audit    AuditConfig `yaml:"audit"`
	// DefinitionsDir resolves relative form definition paths.
	DefinitionsDir string `yaml:"definitions_dir,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:  filepath.Join(home, ".formnav"),
		LogLevel: "info",
		Audit:    AuditConfig{Backend: AuditSQLite},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvAuditBackend); v != "" {
		c.Audit.Backend = strings.ToLower(v)
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// SessionDBPath is the SQLite file holding session records.
func (c Config) SessionDBPath() string {
	return filepath.Join(c.DataDir, "sessions.db")
}

// AuditDBPath is the SQLite file holding audit events.
func (c Config) AuditDBPath() string {
	return filepath.Join(c.DataDir, "audit.db")
}

// AuditCSVPath is the CSV audit log location.
func (c Config) AuditCSVPath() string {
	if c.Audit.CSVPath != "" {
		return c.Audit.CSVPath
	}
	return filepath.Join(c.DataDir, "audit.csv")
}
