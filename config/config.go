// Package config provides configuration loading and validation.
// Configuration is read once at process start and passed by reference
// into the registry and storage-client constructors; there is no
// module-level singleton and no reload path.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backend names selectable in configuration.
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
	BackendS3    = "s3"
	BackendAPI   = "api"
)

// Registry modes.
const (
	RegistryModeLocal = "local"
	RegistryModeAPI   = "api"
)

// Upload and download limits. An upload request body may exceed the
// file limit only by the multipart framing allowance.
const (
	DefaultMaxFileSize      = int64(50) * 1024 * 1024 * 1024 // 50 GiB
	DefaultMaxBodySize      = DefaultMaxFileSize + 1024
	DefaultDownloadChunkLen = 31457280 // ~30 MiB
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Registry RegistryConfig `yaml:"registry"`
	Auth     AuthConfig     `yaml:"auth"`
	Limits   LimitsConfig   `yaml:"limits"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the relational card store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// StorageConfig selects and configures the artifact storage backend.
//
// Backend "local" stores artifact bytes under URI (a directory path).
// Backends "gcs" and "s3" expect URI of the form gs://bucket/root or
// s3://bucket/root. Backend "api" forwards all storage operations to a
// remote opsml server at URI, for clients without storage credentials.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	URI     string `yaml:"uri"`

	// Proxy marks this process as a storage proxy for api-mode
	// clients; list responses rewrite storage roots to ProxyRoot.
	Proxy     bool   `yaml:"proxy"`
	ProxyRoot string `yaml:"proxy_root"`

	// Token authenticates api-backend requests to the remote server.
	Token string `yaml:"token"`

	// AWS region for the s3 backend, if not ambient.
	AWSRegion string `yaml:"aws_region"`
}

// RegistryConfig configures registry behavior.
type RegistryConfig struct {
	// Mode "local" reads the card store directly; "api" forwards
	// registry calls to a remote opsml server.
	Mode string `yaml:"mode"`

	// ServerURL is the remote opsml server for api mode.
	ServerURL string `yaml:"server_url"`
}

// AuthConfig configures optional bearer-token auth on mutating
// endpoints. TokenHash is a bcrypt hash of the accepted token.
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	TokenHash string `yaml:"token_hash"`
}

// LimitsConfig bounds uploads and sizes download chunks.
type LimitsConfig struct {
	MaxFileSize       int64 `yaml:"max_file_size"`
	MaxBodySize       int64 `yaml:"max_body_size"`
	DownloadChunkSize int   `yaml:"download_chunk_size"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// MetricsConfig configures the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads, expands, validates and defaults a yaml config file.
// OPSML_* environment variables override file values.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables referenced in the file
	raw = []byte(os.ExpandEnv(string(raw)))

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment
// variables, for container deployments with no config file.
//
// Environment variables:
//
//	OPSML_STORAGE_BACKEND   - Storage backend: local, gcs, s3, api (default: local)
//	OPSML_STORAGE_URI       - Storage root (path, gs://, s3:// or server URL)
//	OPSML_DATABASE_DSN      - SQLite path (default: opsml.db)
//	OPSML_SERVER_HOST       - Server host (default: 0.0.0.0)
//	OPSML_SERVER_PORT       - Server port (default: 8080)
//	OPSML_AUTH_TOKEN_HASH   - bcrypt hash enabling bearer-token auth
//	OPSML_LOG_LEVEL         - Log level: debug, info, warn, error (default: info)
//	OPSML_LOG_FORMAT        - Log format: json or console (default: json)
//	OPSML_METRICS_ENABLED   - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadWithFallback tries the file first, then environment variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	if HasEnvConfig() {
		return LoadFromEnv()
	}
	return nil, fmt.Errorf("no configuration found: provide config file or set OPSML_STORAGE_URI")
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv("OPSML_STORAGE_URI") != ""
}

// applyEnvOverrides applies OPSML_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPSML_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("OPSML_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OPSML_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("OPSML_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("OPSML_STORAGE_URI"); v != "" {
		cfg.Storage.URI = v
	}
	if v := os.Getenv("OPSML_STORAGE_PROXY"); v != "" {
		cfg.Storage.Proxy = v == "true" || v == "1"
	}
	if v := os.Getenv("OPSML_STORAGE_TOKEN"); v != "" {
		cfg.Storage.Token = v
	}
	if v := os.Getenv("OPSML_REGISTRY_MODE"); v != "" {
		cfg.Registry.Mode = v
	}
	if v := os.Getenv("OPSML_REGISTRY_SERVER_URL"); v != "" {
		cfg.Registry.ServerURL = v
	}
	if v := os.Getenv("OPSML_AUTH_TOKEN_HASH"); v != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.TokenHash = v
	}
	if v := os.Getenv("OPSML_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("OPSML_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("OPSML_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true" || v == "1"
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// Large artifact downloads hold the response open.
		cfg.Server.WriteTimeout = 10 * time.Minute
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "opsml.db"
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendLocal
	}
	if cfg.Storage.URI == "" && cfg.Storage.Backend == BackendLocal {
		cfg.Storage.URI = "opsml_artifacts"
	}

	if cfg.Registry.Mode == "" {
		cfg.Registry.Mode = RegistryModeLocal
	}

	if cfg.Limits.MaxFileSize == 0 {
		cfg.Limits.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Limits.MaxBodySize == 0 {
		cfg.Limits.MaxBodySize = cfg.Limits.MaxFileSize + 1024
	}
	if cfg.Limits.DownloadChunkSize == 0 {
		cfg.Limits.DownloadChunkSize = DefaultDownloadChunkLen
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case BackendLocal, BackendGCS, BackendS3, BackendAPI:
	default:
		return fmt.Errorf("storage.backend must be local, gcs, s3 or api, got %q", cfg.Storage.Backend)
	}

	if cfg.Storage.URI == "" {
		return fmt.Errorf("storage.uri is required for backend %q", cfg.Storage.Backend)
	}

	switch cfg.Registry.Mode {
	case RegistryModeLocal, RegistryModeAPI:
	default:
		return fmt.Errorf("registry.mode must be local or api, got %q", cfg.Registry.Mode)
	}
	if cfg.Registry.Mode == RegistryModeAPI && cfg.Registry.ServerURL == "" {
		return fmt.Errorf("registry.server_url is required in api mode")
	}

	if cfg.Auth.Enabled && cfg.Auth.TokenHash == "" {
		return fmt.Errorf("auth.token_hash is required when auth is enabled")
	}

	if cfg.Limits.MaxBodySize < cfg.Limits.MaxFileSize {
		return fmt.Errorf("limits.max_body_size (%d) must be at least limits.max_file_size (%d)",
			cfg.Limits.MaxBodySize, cfg.Limits.MaxFileSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}

	return nil
}
