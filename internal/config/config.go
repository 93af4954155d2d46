// Package config layers matdet settings: defaults, then an optional YAML or
// JSON file, then a .env file and MATDET_* environment variables. Command
// line flags are applied last by the caller.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	gferrors "github.com/vnykmshr/matdet/pkg/common/errors"
	"github.com/vnykmshr/matdet/pkg/common/validation"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "MATDET_"

// Config holds runtime configuration.
type Config struct {
	Workers      int    `yaml:"workers" json:"workers"`
	Matrices     int    `yaml:"matrices" json:"matrices"`
	InputDir     string `yaml:"input_dir" json:"input_dir"`
	InputPattern string `yaml:"input_pattern" json:"input_pattern"`
	Output       string `yaml:"output" json:"output"`
	MetricsAddr  string `yaml:"metrics_addr" json:"metrics_addr"`
	RedisAddr    string `yaml:"redis_addr" json:"redis_addr"`
	RedisKey     string `yaml:"redis_key" json:"redis_key"`
	Schedule     string `yaml:"schedule" json:"schedule"`
	LogLevel     string `yaml:"log_level" json:"log_level"`
	LogFormat    string `yaml:"log_format" json:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		InputDir:     ".",
		InputPattern: "fileIn-%d.txt",
		Output:       "fileOut.txt",
		RedisKey:     "matdet:results",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load reads path over Default. The format follows the extension.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile overlays the fields present in path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format: %s", ext)
	}
	return nil
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays MATDET_* variables onto c.
func (c *Config) ApplyEnv() error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"WORKERS", &c.Workers},
		{"MATRICES", &c.Matrices},
	}
	for _, v := range ints {
		raw, ok := os.LookupEnv(EnvPrefix + v.name)
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, v.name, err)
		}
		*v.dst = n
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"INPUT_DIR", &c.InputDir},
		{"INPUT_PATTERN", &c.InputPattern},
		{"OUTPUT", &c.Output},
		{"METRICS_ADDR", &c.MetricsAddr},
		{"REDIS_ADDR", &c.RedisAddr},
		{"REDIS_KEY", &c.RedisKey},
		{"SCHEDULE", &c.Schedule},
		{"LOG_LEVEL", &c.LogLevel},
		{"LOG_FORMAT", &c.LogFormat},
	}
	for _, v := range strs {
		if raw, ok := os.LookupEnv(EnvPrefix + v.name); ok && raw != "" {
			*v.dst = raw
		}
	}
	return nil
}

// Validate checks every field and returns the first problem found.
func (c Config) Validate() error {
	if err := validation.ValidatePositive("config", "workers", c.Workers); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeInt("config", "matrices", c.Matrices); err != nil {
		return err
	}
	if err := validation.ValidateVerbCount("config", "input_pattern", c.InputPattern, "%d"); err != nil {
		return err
	}
	if c.Output == "" && c.RedisAddr == "" {
		return gferrors.NewValidationError("config", "output", c.Output, "no result destination").
			WithHint("set output or redis_addr")
	}
	if c.RedisAddr != "" {
		if err := validation.ValidateNotEmpty("config", "redis_key", c.RedisKey); err != nil {
			return err
		}
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return gferrors.NewValidationError("config", "schedule", c.Schedule, err.Error()).
				WithHint(`use a 5-field cron expression or a descriptor such as "@every 1m"`)
		}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return gferrors.NewValidationError("config", "log_level", c.LogLevel, "unknown level")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return gferrors.NewValidationError("config", "log_format", c.LogFormat, "must be text or json")
	}
	return nil
}
