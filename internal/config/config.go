// Package config loads the HTTP server configuration.
//
// Values are resolved from, in increasing precedence: built-in defaults, an
// optional YAML config file, DDLSCHEMA_* environment variables (a .env file in
// the working directory is loaded first when present), and explicitly set
// command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "DDLSCHEMA"

// Config keys
const (
	KeyAddr            = "addr"
	KeyMaxUploadBytes  = "max_upload_bytes"
	KeyLogLevel        = "log_level"
	KeyLogDevelopment  = "log_development"
	KeyAllowedOrigins  = "allowed_origins"
	KeyShutdownTimeout = "shutdown_timeout"
)

// Defaults
const (
	DefaultAddr            = ":8000"
	DefaultMaxUploadBytes  = 32 << 20
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 10 * time.Second
)

// DotEnvFile is loaded into the environment by Load when it exists
var DotEnvFile = ".env"

// Config holds the server settings
type Config struct {
	Addr            string
	MaxUploadBytes  int64
	LogLevel        string
	LogDevelopment  bool
	AllowedOrigins  []string // empty allows same-origin websocket clients only; "*" allows all
	ShutdownTimeout time.Duration
}

// flagKeys maps flag names to the config keys they override
var flagKeys = map[string]string{
	"addr":             KeyAddr,
	"max-upload-bytes": KeyMaxUploadBytes,
	"log-level":        KeyLogLevel,
	"log-development":  KeyLogDevelopment,
	"allowed-origins":  KeyAllowedOrigins,
	"shutdown-timeout": KeyShutdownTimeout,
}

// Load resolves the configuration. configFile may be empty. Flags in flags
// that match a config key override every other source when they were set.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	v := viper.New()
	v.SetDefault(KeyAddr, DefaultAddr)
	v.SetDefault(KeyMaxUploadBytes, DefaultMaxUploadBytes)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogDevelopment, false)
	v.SetDefault(KeyAllowedOrigins, []string{})
	v.SetDefault(KeyShutdownTimeout, DefaultShutdownTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Addr:            v.GetString(KeyAddr),
		MaxUploadBytes:  v.GetInt64(KeyMaxUploadBytes),
		LogLevel:        v.GetString(KeyLogLevel),
		LogDevelopment:  v.GetBool(KeyLogDevelopment),
		AllowedOrigins:  splitAndTrim(v.GetStringSlice(KeyAllowedOrigins)),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%s must not be empty", KeyAddr)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyMaxUploadBytes, c.MaxUploadBytes)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%s must not be negative, got %s", KeyShutdownTimeout, c.ShutdownTimeout)
	}
	return nil
}

// splitAndTrim flattens comma separated entries, which is how a list arrives
// from an environment variable
func splitAndTrim(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return result
}
