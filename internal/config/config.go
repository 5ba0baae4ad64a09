package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendREST = "rest"
	BackendS3   = "s3"
)

// Config holds everything photoctl needs. Values come from the environment,
// optionally preloaded from a .env file.
type Config struct {
	ServiceName   string        `mapstructure:"SERVICE_NAME"`
	APIBase       string        `mapstructure:"API_BASE"`
	MaxPhotos     int           `mapstructure:"MAX_PHOTOS"`
	MaxMB         int           `mapstructure:"MAX_MB"`
	HTTPTimeout   time.Duration `mapstructure:"HTTP_TIMEOUT"`
	DeleteTimeout time.Duration `mapstructure:"DELETE_TIMEOUT"`

	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	MinIOEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket    string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	SessionFile  string `mapstructure:"SESSION_FILE"`
	MetricsFile  string `mapstructure:"METRICS_FILE"`
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	LogFile   string `mapstructure:"LOG_OUTPUT_FILE"`
}

// Load reads an optional .env file (envFiles, or ./.env when none are given)
// and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	v.SetDefault("SERVICE_NAME", "photoctl")
	v.SetDefault("API_BASE", "http://127.0.0.1:8000")
	v.SetDefault("MAX_PHOTOS", 3)
	v.SetDefault("MAX_MB", 5)
	v.SetDefault("HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("DELETE_TIMEOUT", 10*time.Second)
	v.SetDefault("STORAGE_BACKEND", BackendREST)
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "listings-photos")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("SESSION_FILE", "")
	v.SetDefault("METRICS_FILE", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	// Logs go to stderr; stdout is reserved for command output.
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_OUTPUT_FILE", "stderr")
	// Every key has a default, so AutomaticEnv overrides reach Unmarshal.
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	cfg.StorageBackend = strings.ToLower(cfg.StorageBackend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the photo core depends on.
func (c *Config) Validate() error {
	var errs []error
	if c.APIBase == "" {
		errs = append(errs, errors.New("API_BASE must not be empty"))
	}
	if c.MaxPhotos <= 0 {
		errs = append(errs, fmt.Errorf("MAX_PHOTOS must be positive, got %d", c.MaxPhotos))
	}
	if c.MaxMB <= 0 {
		errs = append(errs, fmt.Errorf("MAX_MB must be positive, got %d", c.MaxMB))
	}
	switch c.StorageBackend {
	case BackendREST:
	case BackendS3:
		if c.MinIOEndpoint == "" || c.MinIOBucket == "" {
			errs = append(errs, errors.New("STORAGE_BACKEND=s3 needs MINIO_ENDPOINT and MINIO_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	return errors.Join(errs...)
}
