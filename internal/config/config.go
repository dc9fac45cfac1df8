// Package config loads and validates service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Environment   string
	API           APIConfig
	Assets        AssetsConfig
	Thumbnails    ThumbnailConfig
	Store         StoreConfig
	AWS           AWSConfig
	Media         MediaConfig
	Observability ObservabilityConfig
	CORS          CORSConfig
}

// APIConfig holds HTTP server and auth configuration.
type APIConfig struct {
	Port      string
	JWTSecret string
}

// AssetsConfig holds local asset storage configuration.
type AssetsConfig struct {
	Root    string
	BaseURL string
}

// ThumbnailStorage selects how thumbnails are persisted.
type ThumbnailStorage string

const (
	// ThumbnailStorageFS writes thumbnails under the assets root and serves
	// them from the local /assets/ route.
	ThumbnailStorageFS ThumbnailStorage = "fs"
	// ThumbnailStorageDataURL embeds thumbnails as base64 data URLs directly
	// in the video record.
	ThumbnailStorageDataURL ThumbnailStorage = "data_url"
)

// ThumbnailConfig holds thumbnail upload policy. AllowedTypes containing a
// single "*" entry accepts any image content type.
type ThumbnailConfig struct {
	Storage      ThumbnailStorage
	AllowedTypes []string
}

// AllowsType reports whether the given media type may be uploaded as a thumbnail.
func (t ThumbnailConfig) AllowsType(mediaType string) bool {
	for _, allowed := range t.AllowedTypes {
		if allowed == "*" || allowed == mediaType {
			return true
		}
	}
	return false
}

// StoreBackend selects the video metadata store implementation.
type StoreBackend string

const (
	StoreBackendSQLite   StoreBackend = "sqlite"
	StoreBackendPostgres StoreBackend = "postgres"
	StoreBackendDynamoDB StoreBackend = "dynamodb"
)

// StoreConfig holds metadata store configuration.
type StoreConfig struct {
	Backend       StoreBackend
	SQLitePath    string
	PostgresURL   string
	DynamoDBTable string
}

// AWSConfig holds AWS-specific configuration.
type AWSConfig struct {
	Region      string
	S3Bucket    string
	CDNDomain   string
	SQSQueueURL string
}

// MediaConfig holds timeouts for external tool and storage calls.
type MediaConfig struct {
	ProbeTimeout     time.Duration
	TranscodeTimeout time.Duration
	UploadTimeout    time.Duration
}

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTLPEndpoint string
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowedOrigins []string
}

// Default values
const (
	DefaultPort             = "8091"
	DefaultAssetsRoot       = "./assets"
	DefaultRegion           = "us-east-2"
	DefaultSQLitePath       = "tubely.db"
	DefaultOTLPEndpoint     = "localhost:4317"
	DefaultProbeTimeout     = 30 * time.Second
	DefaultTranscodeTimeout = 2 * time.Minute
	DefaultUploadTimeout    = 5 * time.Minute
)

// Load reads configuration from environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENV", "dev"),
		API: APIConfig{
			Port:      getEnv("PORT", DefaultPort),
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Assets: AssetsConfig{
			Root:    getEnv("ASSETS_ROOT", DefaultAssetsRoot),
			BaseURL: os.Getenv("ASSETS_BASE_URL"),
		},
		Thumbnails: ThumbnailConfig{
			Storage:      ThumbnailStorage(getEnv("THUMBNAIL_STORAGE", string(ThumbnailStorageFS))),
			AllowedTypes: getEnvSlice("THUMBNAIL_ALLOWED_TYPES", []string{"image/jpeg", "image/png"}),
		},
		Store: StoreConfig{
			Backend:       StoreBackend(getEnv("STORE_BACKEND", string(StoreBackendSQLite))),
			SQLitePath:    getEnv("SQLITE_PATH", DefaultSQLitePath),
			PostgresURL:   os.Getenv("POSTGRES_URL"),
			DynamoDBTable: os.Getenv("DYNAMODB_TABLE"),
		},
		AWS: AWSConfig{
			Region:      getEnv("AWS_REGION", DefaultRegion),
			S3Bucket:    os.Getenv("S3_BUCKET"),
			CDNDomain:   os.Getenv("CDN_DOMAIN"),
			SQSQueueURL: os.Getenv("SQS_QUEUE_URL"),
		},
		Media: MediaConfig{
			ProbeTimeout:     getEnvDuration("MEDIA_PROBE_TIMEOUT", DefaultProbeTimeout),
			TranscodeTimeout: getEnvDuration("MEDIA_TRANSCODE_TIMEOUT", DefaultTranscodeTimeout),
			UploadTimeout:    getEnvDuration("STORAGE_UPLOAD_TIMEOUT", DefaultUploadTimeout),
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", DefaultOTLPEndpoint),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration required for the service to run.
func (c *Config) Validate() error {
	var errs []string

	if c.API.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.API.JWTSecret) > 0 && len(c.API.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}
	if c.AWS.S3Bucket == "" {
		errs = append(errs, "S3_BUCKET is required")
	}

	switch c.Thumbnails.Storage {
	case ThumbnailStorageFS, ThumbnailStorageDataURL:
	default:
		errs = append(errs, fmt.Sprintf("THUMBNAIL_STORAGE must be %q or %q", ThumbnailStorageFS, ThumbnailStorageDataURL))
	}
	if len(c.Thumbnails.AllowedTypes) == 0 {
		errs = append(errs, "THUMBNAIL_ALLOWED_TYPES must not be empty")
	}

	switch c.Store.Backend {
	case StoreBackendSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, "SQLITE_PATH is required for the sqlite backend")
		}
	case StoreBackendPostgres:
		if c.Store.PostgresURL == "" {
			errs = append(errs, "POSTGRES_URL is required for the postgres backend")
		}
	case StoreBackendDynamoDB:
		if c.Store.DynamoDBTable == "" {
			errs = append(errs, "DYNAMODB_TABLE is required for the dynamodb backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_BACKEND must be one of %q, %q, %q",
			StoreBackendSQLite, StoreBackendPostgres, StoreBackendDynamoDB))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "prod" || env == "production"
}

// GetJWTSecret returns the JWT signing secret.
func (c *Config) GetJWTSecret() ([]byte, error) {
	if c.API.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not configured")
	}
	return []byte(c.API.JWTSecret), nil
}

// AssetBaseURL returns the base URL used for locally served assets.
func (c *Config) AssetBaseURL() string {
	if c.Assets.BaseURL != "" {
		return strings.TrimSuffix(c.Assets.BaseURL, "/")
	}
	return fmt.Sprintf("http://localhost:%s/assets", c.API.Port)
}

// ObjectURL returns the publicly addressable URL for an object storage key.
// When a CDN domain is configured it takes precedence over the direct S3 URL.
func (c *Config) ObjectURL(key string) string {
	if c.AWS.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", c.AWS.CDNDomain, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.AWS.S3Bucket, c.AWS.Region, key)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
