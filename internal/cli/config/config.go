package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NANO_AUTH_IDENTIFIER
const EnvPrefix = "NANO"

// Config represents the nano CLI configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
	Decode  DecodeConfig  `mapstructure:"decode"`
}

// APIConfig represents the service endpoint
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig holds the account credentials
type AuthConfig struct {
	Identifier string `mapstructure:"identifier"`
	Secret     string `mapstructure:"secret"`
}

// SessionConfig selects where session tokens are kept between runs
type SessionConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string        `mapstructure:"prefix"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig represents the redis token store connection
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// DecodeConfig controls response decoding
type DecodeConfig struct {
	Lenient bool `mapstructure:"lenient"`
}

// Session backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// HasCredentials reports whether both halves of the credentials are set
func (c *Config) HasCredentials() bool {
	return c.Auth.Identifier != "" && c.Auth.Secret != ""
}

// Load loads the configuration from nano.yml or nano.yaml in the working
// directory or the user config directory, then applies NANO_* overrides
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is like Load but reads the given file when path is not empty
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("api.base_url", "https://api.nanowrimo.org/")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("auth.identifier", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("session.backend", BackendMemory)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.prefix", "nanowrimo:session:")
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.development", false)
	v.SetDefault("decode.lenient", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("nano")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "nano"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an http or https URL, got: %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got: %s", cfg.API.Timeout)
	}

	if (cfg.Auth.Identifier == "") != (cfg.Auth.Secret == "") {
		return fmt.Errorf("auth.identifier and auth.secret must be set together")
	}

	switch cfg.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if cfg.Session.Redis.Addr == "" {
			return fmt.Errorf("session.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("session.backend must be %q or %q, got: %s", BackendMemory, BackendRedis, cfg.Session.Backend)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got: %s", cfg.Log.Level)
	}
	return nil
}
