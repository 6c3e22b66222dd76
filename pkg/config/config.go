// Package config loads and validates library configuration with precedence
// ENV > file > defaults.
package config

import "time"

// Database type constants
const (
	// DatabaseTypeMongoDB selects the MongoDB document backend.
	DatabaseTypeMongoDB = "mongodb"
	// DatabaseTypeMemory selects the in-memory document backend.
	DatabaseTypeMemory = "memory"
)

// Object storage type constants
const (
	// ObjectStorageTypeS3 selects the S3 blob backend.
	ObjectStorageTypeS3 = "s3"
	// ObjectStorageTypeMemory selects the in-memory blob backend.
	ObjectStorageTypeMemory = "memory"
)

// Config is the root configuration.
type Config struct {
	Log           LogConfig           `mapstructure:"log"`
	Database      DatabaseConfig      `mapstructure:"database"`
	ObjectStorage ObjectStorageConfig `mapstructure:"object_storage"`
	Auth          AuthConfig          `mapstructure:"auth"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig configures the document backend.
type DatabaseConfig struct {
	Type             string        `mapstructure:"type"`
	URL              string        `mapstructure:"url"`
	DatabaseName     string        `mapstructure:"database_name"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// ObjectStorageConfig configures the blob backend.
type ObjectStorageConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"`
	S3      S3Config `mapstructure:"s3"`
}

// S3Config configures the S3 adapter.
type S3Config struct {
	Bucket           string        `mapstructure:"bucket"`
	Region           string        `mapstructure:"region"`
	Endpoint         string        `mapstructure:"endpoint"`
	AccessKeyID      string        `mapstructure:"access_key_id"`
	SecretAccessKey  string        `mapstructure:"secret_access_key"`
	SessionToken     string        `mapstructure:"session_token"`
	UsePathStyle     bool          `mapstructure:"use_path_style"`
	PublicBaseURL    string        `mapstructure:"public_base_url"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	PresignExpiry    time.Duration `mapstructure:"presign_expiry"`
}

// AuthConfig configures actor identity resolution.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// DefaultConfig returns the defaults applied beneath file and env settings.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Type:             DatabaseTypeMemory,
			ConnectTimeout:   5 * time.Second,
			OperationTimeout: 5 * time.Second,
		},
		ObjectStorage: ObjectStorageConfig{
			Enabled: false,
			Type:    ObjectStorageTypeS3,
			S3: S3Config{
				OperationTimeout: 10 * time.Second,
				PresignExpiry:    15 * time.Minute,
			},
		},
	}
}
