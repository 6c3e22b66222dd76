package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader defines the interface for loading configuration.
type Loader interface {
	Load() (*Config, error)
	Validate(*Config) error
}

// ViperLoader implements Loader using Viper.
type ViperLoader struct {
	configFile string
	envPrefix  string
}

// NewViperLoader creates a loader. configFile may be empty; envPrefix scopes
// the environment variables (e.g. "RECORDKIT" reads RECORDKIT_DATABASE_URL).
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{configFile: configFile, envPrefix: envPrefix}
}

// Load resolves configuration with precedence ENV > file > defaults.
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()

	l.setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	l.bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (l *ViperLoader) setDefaults(v *viper.Viper, defaults Config) {
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	v.SetDefault("database.type", defaults.Database.Type)
	v.SetDefault("database.connect_timeout", defaults.Database.ConnectTimeout)
	v.SetDefault("database.operation_timeout", defaults.Database.OperationTimeout)

	v.SetDefault("object_storage.enabled", defaults.ObjectStorage.Enabled)
	v.SetDefault("object_storage.type", defaults.ObjectStorage.Type)
	v.SetDefault("object_storage.s3.operation_timeout", defaults.ObjectStorage.S3.OperationTimeout)
	v.SetDefault("object_storage.s3.presign_expiry", defaults.ObjectStorage.S3.PresignExpiry)
}

// bindEnvVars explicitly binds environment variables for nested structs.
func (l *ViperLoader) bindEnvVars(v *viper.Viper) {
	v.BindEnv("log.level", l.prefixedEnv("LOG_LEVEL"))
	v.BindEnv("log.format", l.prefixedEnv("LOG_FORMAT"))

	v.BindEnv("database.type", l.prefixedEnv("DATABASE_TYPE"))
	v.BindEnv("database.url", l.prefixedEnv("DATABASE_URL"))
	v.BindEnv("database.database_name", l.prefixedEnv("DATABASE_NAME"))
	v.BindEnv("database.connect_timeout", l.prefixedEnv("DATABASE_CONNECT_TIMEOUT"))
	v.BindEnv("database.operation_timeout", l.prefixedEnv("DATABASE_OPERATION_TIMEOUT"))

	v.BindEnv("object_storage.enabled", l.prefixedEnv("OBJECT_STORAGE_ENABLED"))
	v.BindEnv("object_storage.type", l.prefixedEnv("OBJECT_STORAGE_TYPE"))
	v.BindEnv("object_storage.s3.bucket", l.prefixedEnv("S3_BUCKET"))
	v.BindEnv("object_storage.s3.region", l.prefixedEnv("S3_REGION"), l.prefixedEnv("AWS_REGION"))
	v.BindEnv("object_storage.s3.endpoint", l.prefixedEnv("S3_ENDPOINT"))
	v.BindEnv("object_storage.s3.access_key_id", l.prefixedEnv("S3_ACCESS_KEY_ID"))
	v.BindEnv("object_storage.s3.secret_access_key", l.prefixedEnv("S3_SECRET_ACCESS_KEY"))
	v.BindEnv("object_storage.s3.session_token", l.prefixedEnv("S3_SESSION_TOKEN"))
	v.BindEnv("object_storage.s3.use_path_style", l.prefixedEnv("S3_USE_PATH_STYLE"))
	v.BindEnv("object_storage.s3.public_base_url", l.prefixedEnv("S3_PUBLIC_BASE_URL"))
	v.BindEnv("object_storage.s3.operation_timeout", l.prefixedEnv("S3_OPERATION_TIMEOUT"))
	v.BindEnv("object_storage.s3.presign_expiry", l.prefixedEnv("S3_PRESIGN_EXPIRY"))

	v.BindEnv("auth.jwt_secret", l.prefixedEnv("AUTH_JWT_SECRET"))
}

func (l *ViperLoader) prefixedEnv(name string) string {
	if l.envPrefix == "" {
		return name
	}
	return l.envPrefix + "_" + name
}

// Validate rejects configurations the backends would fail on at startup.
func (l *ViperLoader) Validate(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Database.Type)) {
	case DatabaseTypeMemory:
	case DatabaseTypeMongoDB:
		if cfg.Database.URL == "" {
			return fmt.Errorf("database.url is required for mongodb")
		}
		if cfg.Database.DatabaseName == "" {
			return fmt.Errorf("database.database_name is required for mongodb")
		}
	default:
		return fmt.Errorf("unsupported database.type %q (supported: mongodb, memory)", cfg.Database.Type)
	}

	if cfg.ObjectStorage.Enabled {
		switch strings.ToLower(strings.TrimSpace(cfg.ObjectStorage.Type)) {
		case ObjectStorageTypeMemory:
		case ObjectStorageTypeS3:
			if cfg.ObjectStorage.S3.Bucket == "" {
				return fmt.Errorf("object_storage.s3.bucket is required")
			}
			if cfg.ObjectStorage.S3.Region == "" {
				return fmt.Errorf("object_storage.s3.region is required")
			}
		default:
			return fmt.Errorf("unsupported object_storage.type %q (supported: s3, memory)", cfg.ObjectStorage.Type)
		}
	}

	return nil
}
