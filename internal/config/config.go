// Package config loads and validates service configuration from defaults,
// an optional config file, and FILEKEEPER_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

type ServerConfig struct {
	// Port the HTTP server listens on
	Port int `mapstructure:"port" validate:"required,gt=0,lte=65535"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

type LoggingConfig struct {
	// Dev switches to the human-readable development encoder
	Dev bool `mapstructure:"dev"`
}

type StorageConfig struct {
	// Root is the directory file content is written under
	Root string `mapstructure:"root" validate:"required"`
}

type DatabaseConfig struct {
	// Backend selects the document store implementation
	Backend string `mapstructure:"backend" validate:"required,oneof=postgres memory"`

	// DSN is the PostgreSQL connection string; required for the postgres backend
	DSN string `mapstructure:"dsn" validate:"required_if=Backend postgres"`

	// Migrate runs pending schema migrations on startup (postgres only)
	Migrate bool `mapstructure:"migrate"`
}

type CacheConfig struct {
	// Backend selects the key-value cache implementation
	Backend string `mapstructure:"backend" validate:"required,oneof=badger memory"`

	// Dir is the Badger database directory; required for the badger backend
	Dir string `mapstructure:"dir" validate:"required_if=Backend badger"`
}

type WorkerConfig struct {
	// Slots bounds the number of thumbnail jobs processed concurrently
	Slots int `mapstructure:"slots" validate:"required,gte=1"`

	// QueueSize is the capacity of the in-process job queue
	QueueSize int `mapstructure:"queue_size" validate:"required,gte=1"`
}

// Load reads configuration. Precedence: environment variables, then the
// config file at path (if given), then defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FILEKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.dev", false)
	v.SetDefault("storage.root", "/tmp/files_manager")
	v.SetDefault("database.backend", "memory")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.migrate", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.dir", "")
	v.SetDefault("worker.slots", 4)
	v.SetDefault("worker.queue_size", 128)
}
