package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds CLI configuration.
type Config struct {
	LogLevel string `yaml:"log_level" env:"UCMD_LOG_LEVEL" envDefault:"INFO"`
	// LogFormat is "text" or "json".
	LogFormat  string `yaml:"log_format" env:"UCMD_LOG_FORMAT" envDefault:"text"`
	OutboxPath string `yaml:"outbox" env:"UCMD_OUTBOX"`
	// Strict treats warnings as failures.
	Strict bool `yaml:"strict" env:"UCMD_STRICT"`
	// SchemaCheck validates params against the embedded schemas.
	SchemaCheck bool `yaml:"schema_check" env:"UCMD_SCHEMA_CHECK" envDefault:"true"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		LogLevel:    "INFO",
		LogFormat:   "text",
		SchemaCheck: true,
	}
}

// Load loads configuration from environment variables. Malformed values
// are logged and the defaults are used instead.
func Load() *Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("invalid environment configuration, using defaults", "error", err)
		return Defaults()
	}
	return &cfg
}

// LoadDotEnv exports the variables of the given .env files (".env" when
// none is given). Variables already set win, and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %q: %w", p, err)
		}
	}
	return nil
}

// LoadFile overlays the YAML file at path on top of cfg. Keys missing from
// the file keep their current values.
func LoadFile(cfg *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	out := *cfg
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &out, nil
}

// NewLogger builds the slog logger described by cfg, writing to w.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
