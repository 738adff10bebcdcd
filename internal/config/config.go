// Package config loads matchmakingd's runtime configuration from
// environment variables and an optional config file, using viper the way
// the rest of this stack's Go servers do.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the matchmaking server.
type Config struct {
	Listen  ListenConfig  `mapstructure:"listen"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

// ListenConfig is the TCP address the matchmaking listener binds to.
type ListenConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MetricsConfig controls the Prometheus/health side-channel.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig controls zap logger level.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// AuthConfig selects and configures the AuthBackend implementation.
type AuthConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	BearerSecret string `mapstructure:"bearer_secret"`
}

// Load reads configuration from environment variables (prefixed
// MATCHMAKING_) and an optional config file named matchmakingd.yaml in the
// working directory or ./config.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("listen.host", "0.0.0.0")
	_ = v.BindEnv("listen.port") // required: no default

	v.SetDefault("metrics.listen_addr", ":9095")

	v.SetDefault("logging.level", "info")

	v.SetDefault("auth.base_url", "")
	v.SetDefault("auth.bearer_secret", "")

	v.SetConfigName("matchmakingd")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("MATCHMAKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config unmarshal: %w", err)
	}

	if cfg.Listen.Port <= 0 || cfg.Listen.Port > 65535 {
		return Config{}, fmt.Errorf("listen.port %d out of range", cfg.Listen.Port)
	}

	return cfg, nil
}
