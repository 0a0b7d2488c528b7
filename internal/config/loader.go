package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"hidream/internal/registry"
)

// Config holds runtime parameters for the service and the CLI.
// Zero values mean "unspecified" and are replaced by defaults in WithDefaults.
type Config struct {
	Addr       string `json:"addr" yaml:"addr" toml:"addr"`
	Model      string `json:"model" yaml:"model" toml:"model"`
	CustomPath string `json:"custom_path" yaml:"custom_path" toml:"custom_path"`

	WorkerURL            string `json:"worker_url" yaml:"worker_url" toml:"worker_url"`
	WorkerTimeoutSeconds int    `json:"worker_timeout_seconds" yaml:"worker_timeout_seconds" toml:"worker_timeout_seconds"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
	LogFile   string `json:"log_file" yaml:"log_file" toml:"log_file"`

	// OutputDir, when set, receives every image generated by the server.
	// Local directory or s3://bucket/prefix.
	OutputDir string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`

	MaxQueueDepth         int   `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitSeconds        int   `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds"`
	RequestTimeoutSeconds int   `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	MaxBodyBytes          int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`

	// Models overrides fields of the predefined catalog, keyed by kind.
	Models map[string]registry.Override `json:"models" yaml:"models" toml:"models"`
}

// Defaults used by WithDefaults.
const (
	DefaultAddr      = ":7860"
	DefaultModel     = "dev"
	DefaultWorkerURL = "http://127.0.0.1:9100"
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. With no paths it reads ./.env
// and a missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HIDREAM_"

// ApplyEnv overlays HIDREAM_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(name string, dst *int) error {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("ADDR", &cfg.Addr)
	str("MODEL", &cfg.Model)
	str("CUSTOM_PATH", &cfg.CustomPath)
	str("WORKER_URL", &cfg.WorkerURL)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("LOG_FILE", &cfg.LogFile)
	str("OUTPUT_DIR", &cfg.OutputDir)
	for name, dst := range map[string]*int{
		"WORKER_TIMEOUT_SECONDS":  &cfg.WorkerTimeoutSeconds,
		"MAX_QUEUE_DEPTH":         &cfg.MaxQueueDepth,
		"MAX_WAIT_SECONDS":        &cfg.MaxWaitSeconds,
		"REQUEST_TIMEOUT_SECONDS": &cfg.RequestTimeoutSeconds,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "MAX_BODY_BYTES"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_BODY_BYTES: %w", EnvPrefix, err)
		}
		cfg.MaxBodyBytes = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CORS_ENABLED"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sCORS_ENABLED: %w", EnvPrefix, err)
		}
		cfg.CORSEnabled = b
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CORS_ORIGINS"); ok {
		cfg.CORSAllowedOrigins = SplitCSV(v)
	}
	return nil
}

// WithDefaults returns a copy of c with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.WorkerURL == "" {
		c.WorkerURL = DefaultWorkerURL
	}
	return c
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping empties.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
