// Package config loads engine configuration from file, environment and
// defaults. Everything here is injected into the components that need it;
// nothing reads configuration from process-wide mutable state at runtime.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the fraud warning engine
type Config struct {
	Refresh struct {
		// Interval between feed pulls
		Interval time.Duration `mapstructure:"interval"`
		// BatchSize is how many warnings each pull requests
		BatchSize int `mapstructure:"batch_size"`
		// FetchRate caps upstream fetches per second (0 = uncapped)
		FetchRate float64 `mapstructure:"fetch_rate"`
	} `mapstructure:"refresh"`

	Feed struct {
		// DisplayCap bounds the newest-N feed view (0 = unbounded)
		DisplayCap int `mapstructure:"display_cap"`
	} `mapstructure:"feed"`

	Source struct {
		// Seed drives the synthetic warning generator; a fixed seed
		// reproduces the same feed every run
		Seed int64 `mapstructure:"seed"`
	} `mapstructure:"source"`

	Presentation struct {
		// SeverityColors maps severity levels onto terminal colors for
		// the feed renderer
		SeverityColors map[string]string `mapstructure:"severity_colors"`
	} `mapstructure:"presentation"`

	Logging struct {
		// Level is the zap log level: debug, info, warn, error
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

func setDefaults() {
	viper.SetDefault("refresh.interval", "30s")
	viper.SetDefault("refresh.batch_size", 5)
	viper.SetDefault("refresh.fetch_rate", 0)
	viper.SetDefault("feed.display_cap", 50)
	viper.SetDefault("source.seed", 1)
	viper.SetDefault("presentation.severity_colors", map[string]string{
		"LOW":      "white",
		"MEDIUM":   "yellow",
		"HIGH":     "red",
		"CRITICAL": "hired",
	})
	viper.SetDefault("logging.level", "info")
}

// LoadConfig reads config.yaml (working directory or ./config), applies
// FRAUDWATCH_* environment overrides, and falls back to defaults.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix("FRAUDWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, will use defaults and env vars
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations the engine cannot run with
func (c *Config) Validate() error {
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive, got %s", c.Refresh.Interval)
	}
	if c.Refresh.BatchSize <= 0 {
		return fmt.Errorf("refresh.batch_size must be positive, got %d", c.Refresh.BatchSize)
	}
	if c.Refresh.FetchRate < 0 {
		return fmt.Errorf("refresh.fetch_rate must not be negative, got %f", c.Refresh.FetchRate)
	}
	if c.Feed.DisplayCap < 0 {
		return fmt.Errorf("feed.display_cap must not be negative, got %d", c.Feed.DisplayCap)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level: %s", c.Logging.Level)
	}
	return nil
}
