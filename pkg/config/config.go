package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/security"
	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
)

// Storage backends selectable through STORE_BACKEND
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendRedis    = "redis"
)

// Config holds all configuration for the store.
// The values are read by viper from an optional config file, a .env file or the environment.
type Config struct {
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	Backend        string `mapstructure:"STORE_BACKEND"`
	FileDir        string `mapstructure:"STORE_FILE_DIR"`
	PostgresURL    string `mapstructure:"POSTGRES_CONN_STR"`
	MongoURI       string `mapstructure:"MONGO_URI"`
	MongoDatabase  string `mapstructure:"MONGO_DATABASE"`
	MongoColl      string `mapstructure:"MONGO_COLLECTION"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	RedisKeyPrefix string `mapstructure:"REDIS_KEY_PREFIX"`
	CascadePolicy  string `mapstructure:"CASCADE_POLICY"`
	PasswordMode   string `mapstructure:"PASSWORD_MODE"`
	SanitizeText   bool   `mapstructure:"SANITIZE_TEXT"`
	MetricsEnabled bool   `mapstructure:"METRICS_ENABLED"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", BackendFile)
	v.SetDefault("STORE_FILE_DIR", "./data")
	v.SetDefault("POSTGRES_CONN_STR", "")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "localstore")
	v.SetDefault("MONGO_COLLECTION", "kv")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_KEY_PREFIX", "")
	v.SetDefault("CASCADE_POLICY", string(models.CascadePreserve))
	v.SetDefault("PASSWORD_MODE", security.ModePlaintext)
	v.SetDefault("SANITIZE_TEXT", false)
	v.SetDefault("METRICS_ENABLED", false)
}

// Load reads configuration. A .env file in the working directory is loaded
// first when present; path optionally names a config file (yaml, json, toml or env).
// Environment variables override both.
func Load(path string) (*Config, error) {
	// a missing .env file is normal outside development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.CascadePolicy = strings.ToLower(strings.TrimSpace(cfg.CascadePolicy))
	return &cfg, nil
}

// Cascade returns the configured cascade policy
func (c *Config) Cascade() models.CascadePolicy {
	return models.CascadePolicy(c.CascadePolicy)
}

// Validate checks that the selected backend has what it needs to connect
func (c *Config) Validate() error {
	invalid := func(msg string) error {
		return apperrors.New(apperrors.ErrCodeValidation, msg)
	}

	switch c.Backend {
	case BackendMemory:
	case BackendFile:
		if c.FileDir == "" {
			return invalid("STORE_FILE_DIR is required for the file backend")
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			return invalid("POSTGRES_CONN_STR is required for the postgres backend")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return invalid("MONGO_URI is required for the mongo backend")
		}
		if c.MongoDatabase == "" || c.MongoColl == "" {
			return invalid("MONGO_DATABASE and MONGO_COLLECTION must not be empty")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return invalid("REDIS_URL is required for the redis backend")
		}
	default:
		return invalid(fmt.Sprintf("unknown STORE_BACKEND %q", c.Backend))
	}

	if !c.Cascade().Valid() {
		return invalid(fmt.Sprintf("CASCADE_POLICY must be %q or %q", models.CascadePreserve, models.CascadeDelete))
	}
	if _, err := security.NewPasswordHasher(c.PasswordMode); err != nil {
		return invalid(err.Error())
	}
	return nil
}
