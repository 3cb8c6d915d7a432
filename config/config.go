// Package config holds runtime settings for batch conversion and the
// cpnconvert tool.
//
// Settings come from an optional YAML file, CPNLIB_* environment variables and
// an optional .env file, layered over DefaultConfig.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CPNLIB"

// Config is the full runtime configuration.
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"   yaml:"engine"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"    yaml:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// EngineConfig tunes batch conversion.
type EngineConfig struct {
	// Workers bounds the number of coupons converted concurrently.
	Workers int `mapstructure:"workers" yaml:"workers"`

	// FixingLookbackDays widens the fixing window loaded from a store
	// before the first fixing date of a coupon.
	FixingLookbackDays int `mapstructure:"fixing_lookback_days" yaml:"fixing_lookback_days"`
}

// PostgresConfig locates the fixing database. An empty DSN disables it.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// RedisConfig locates the fixing cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"     yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db"       yaml:"db"`
	TTL      time.Duration `mapstructure:"ttl"      yaml:"ttl"`
}

type LoggingConfig struct {
	Env   string `mapstructure:"env"   yaml:"env"` // "production" or "development"
	Level string `mapstructure:"level" yaml:"level"`
}

// MetricsConfig controls the Prometheus textfile written after a batch.
// An empty TextfilePath disables it.
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path" yaml:"textfile_path"`
}

// DefaultConfig provides values used when nothing else is set.
var DefaultConfig = Config{
	Engine: EngineConfig{
		Workers:            8,
		FixingLookbackDays: 7,
	},
	Redis: RedisConfig{
		TTL: 10 * time.Minute,
	},
	Logging: LoggingConfig{
		Env:   "development",
		Level: "info",
	},
}

// cfg is the active configuration. Defaults to DefaultConfig.
var cfg = DefaultConfig

// SetConfig replaces the active configuration.
func SetConfig(c Config) {
	cfg = c
}

// GetConfig returns the active configuration.
func GetConfig() Config {
	return cfg
}

// Load reads config.yaml from ./config, $HOME/.cpnlib or /etc/cpnlib if
// present. A missing file is not an error.
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".cpnlib"))
	v.AddConfigPath("/etc/cpnlib")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads the given config file; it must exist.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config.LoadFromFile: reading %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig
	v.SetDefault("engine.workers", d.Engine.Workers)
	v.SetDefault("engine.fixing_lookback_days", d.Engine.FixingLookbackDays)
	v.SetDefault("postgres.dsn", d.Postgres.DSN)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.ttl", d.Redis.TTL)
	v.SetDefault("logging.env", d.Logging.Env)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("metrics.textfile_path", d.Metrics.TextfilePath)
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.Engine.Workers <= 0 {
		return fmt.Errorf("config: engine.workers must be positive, got %d", c.Engine.Workers)
	}
	if c.Engine.FixingLookbackDays < 0 {
		return fmt.Errorf("config: engine.fixing_lookback_days must not be negative, got %d", c.Engine.FixingLookbackDays)
	}
	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		return fmt.Errorf("config: redis.ttl must be positive when redis.addr is set")
	}
	return nil
}

// loadDotEnv exports variables from ./.env; existing variables win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
