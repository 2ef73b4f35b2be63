// Package config loads greenleaf settings from a YAML file and applies
// GREENLEAF_* environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Blob     BlobConfig     `yaml:"blob"`
	Auth     AuthConfig     `yaml:"auth"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Exports  ExportsConfig  `yaml:"exports"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64    `yaml:"max_upload_bytes"`
}

// StorageConfig selects the sample store backend.
type StorageConfig struct {
	Driver      string `yaml:"driver"` // memory, sqlite, postgres, mongo
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	MongoURI    string `yaml:"mongo_uri"`
	MongoDB     string `yaml:"mongo_database"`
}

// BlobConfig selects the object store for images and export artifacts.
type BlobConfig struct {
	Driver        string   `yaml:"driver"` // fs, memory, s3
	Root          string   `yaml:"root"`
	PublicBaseURL string   `yaml:"public_base_url"`
	S3            S3Config `yaml:"s3"`
}

// S3Config configures the S3 blob driver.
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// AuthConfig configures bearer token validation. An empty secret disables
// authentication.
type AuthConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	TokenTTL string `yaml:"token_ttl"`
}

// AnalysisConfig configures the stub analyzer.
type AnalysisConfig struct {
	SegmentedBaseURL string `yaml:"segmented_base_url"`
}

// ExportsConfig configures the async export worker.
type ExportsConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":4000",
			AllowedOrigins:  []string{"http://localhost:3000"},
			ShutdownTimeout: "10s",
			MaxUploadBytes:  10 << 20,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "data/greenleaf.db",
			MongoDB:    "greenleaf",
		},
		Blob: BlobConfig{
			Driver: "fs",
			Root:   "data/blobs",
		},
		Auth: AuthConfig{
			Issuer:   "greenleaf",
			TokenTTL: "24h",
		},
		Analysis: AnalysisConfig{
			SegmentedBaseURL: "https://exemplo.com/imagens",
		},
		Exports: ExportsConfig{QueueSize: 32},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path (a missing file yields defaults), then applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnvOverrides(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnvOverrides(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("GREENLEAF_ADDR", &c.Server.Addr)
	str("GREENLEAF_STORAGE_DRIVER", &c.Storage.Driver)
	str("GREENLEAF_SQLITE_PATH", &c.Storage.SQLitePath)
	str("GREENLEAF_POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("GREENLEAF_MONGO_URI", &c.Storage.MongoURI)
	str("GREENLEAF_MONGO_DATABASE", &c.Storage.MongoDB)
	str("GREENLEAF_BLOB_DRIVER", &c.Blob.Driver)
	str("GREENLEAF_BLOB_FS_ROOT", &c.Blob.Root)
	str("GREENLEAF_BLOB_PUBLIC_BASE_URL", &c.Blob.PublicBaseURL)
	str("GREENLEAF_BLOB_S3_BUCKET", &c.Blob.S3.Bucket)
	str("GREENLEAF_BLOB_S3_REGION", &c.Blob.S3.Region)
	str("GREENLEAF_BLOB_S3_ENDPOINT", &c.Blob.S3.Endpoint)
	str("GREENLEAF_AUTH_SECRET", &c.Auth.Secret)
	str("GREENLEAF_LOG_LEVEL", &c.Logging.Level)
	str("GREENLEAF_SEGMENTED_BASE_URL", &c.Analysis.SegmentedBaseURL)
	if v, ok := lookup("GREENLEAF_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}
	if v, ok := lookup("GREENLEAF_BLOB_S3_USE_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GREENLEAF_BLOB_S3_USE_PATH_STYLE: %w", err)
		}
		c.Blob.S3.UsePathStyle = b
	}
	return nil
}

// ValidStorageDrivers lists the supported sample store backends.
var ValidStorageDrivers = []string{"memory", "sqlite", "postgres", "mongo"}

// ValidBlobDrivers lists the supported blob backends.
var ValidBlobDrivers = []string{"fs", "memory", "s3"}

// Validate checks driver names and durations.
func (c *Config) Validate() error {
	if !contains(ValidStorageDrivers, c.Storage.Driver) {
		return fmt.Errorf("invalid storage driver: %s (valid: %v)", c.Storage.Driver, ValidStorageDrivers)
	}
	if !contains(ValidBlobDrivers, c.Blob.Driver) {
		return fmt.Errorf("invalid blob driver: %s (valid: %v)", c.Blob.Driver, ValidBlobDrivers)
	}
	if c.Blob.Driver == "s3" && c.Blob.S3.Bucket == "" {
		return fmt.Errorf("blob driver s3 requires a bucket")
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Auth.TokenTTL); err != nil {
		return fmt.Errorf("invalid token_ttl: %w", err)
	}
	if c.Exports.QueueSize <= 0 {
		return fmt.Errorf("exports queue_size must be positive")
	}
	return nil
}

// ShutdownTimeout returns the parsed graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// TokenTTL returns the parsed token lifetime.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.Auth.TokenTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// AuthEnabled reports whether bearer tokens are required.
func (c *Config) AuthEnabled() bool { return c.Auth.Secret != "" }

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
