// Package config loads memimg settings from a YAML file and the environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, a dotenv
// file, MEMIMG_* environment variables. CLI flags are applied on top by the
// caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Log backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ValidBackends lists accepted values for log.backend.
var ValidBackends = []string{BackendFile, BackendSQLite, BackendMemory}

// ValidLogFormats lists accepted values for logging.format.
var ValidLogFormats = []string{FormatText, FormatJSON}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete runtime configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Logging LoggingConfig `yaml:"logging"`
}

// LogConfig selects where commands are persisted.
type LogConfig struct {
	Backend string `yaml:"backend" env:"MEMIMG_LOG_BACKEND"`
	Path    string `yaml:"path" env:"MEMIMG_LOG_PATH"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"MEMIMG_LOG_LEVEL"`
	Format string `yaml:"format" env:"MEMIMG_LOG_FORMAT"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log: LogConfig{
			Backend: BackendFile,
			Path:    "memimg.log",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment. The result is not validated so that
// callers can apply flag overrides first.
func Load(path string) (Config, error) {
	return LoadWithEnvFile(path, "")
}

// LoadWithEnvFile is Load with MEMIMG_* defaults read from a dotenv file.
// Variables already set in the process environment win over the file.
func LoadWithEnvFile(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}

		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	environ, err := environment(envFile)
	if err != nil {
		return Config{}, err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func environment(envFile string) (map[string]string, error) {
	environ := env.ToMap(os.Environ())
	if envFile == "" {
		return environ, nil
	}
	fromFile, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	for k, v := range fromFile {
		if _, set := environ[k]; !set {
			environ[k] = v
		}
	}
	return environ, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !slices.Contains(ValidBackends, c.Log.Backend) {
		return fmt.Errorf("%w: log.backend %q (valid: %v)", ErrInvalid, c.Log.Backend, ValidBackends)
	}
	if c.Log.Backend != BackendMemory && c.Log.Path == "" {
		return fmt.Errorf("%w: log.path is required for the %s backend", ErrInvalid, c.Log.Backend)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalid, err)
	}
	if !slices.Contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("%w: logging.format %q (valid: %v)", ErrInvalid, c.Logging.Format, ValidLogFormats)
	}
	return nil
}

// SlogLevel parses Level as a slog level name ("debug", "info", "warn",
// "error", optionally with an offset such as "info+2").
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, err
	}
	return level, nil
}
