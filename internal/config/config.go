// Package config loads the tool configuration from environment variables
// and an optional YAML config file via viper.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingToken is the fatal startup error for an absent API token.
var ErrMissingToken = errors.New("SNYK_API_TOKEN is not set")

// Config is the effective tool configuration, constructed once at startup
// and passed to each component.
type Config struct {
	Token             string        `mapstructure:"api_token" yaml:"api_token"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	APIVersion        string        `mapstructure:"api_version" yaml:"api_version"`
	PageLimit         int           `mapstructure:"page_limit" yaml:"page_limit"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryAfterDefault time.Duration `mapstructure:"retry_after_default" yaml:"retry_after_default"`
	UpdateDelay       time.Duration `mapstructure:"update_delay" yaml:"update_delay"`
	TargetRuntime     string        `mapstructure:"target_runtime" yaml:"target_runtime"`
	Origins           string        `mapstructure:"origins" yaml:"origins"`
	DefaultTagKey     string        `mapstructure:"default_tag_key" yaml:"default_tag_key"`
	DefaultTagValue   string        `mapstructure:"default_tag_value" yaml:"default_tag_value"`
	RedisAddr         string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	MetricsAddr       string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogJSON           bool          `mapstructure:"log_json" yaml:"log_json"`
}

// Dir returns the config directory, replaceable in tests.
var Dir = defaultDir

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "snyk-tag-updater"), nil
}

// SetDefaults registers all configuration defaults on viper.
func SetDefaults() {
	viper.SetDefault("base_url", "https://api.snyk.io/rest")
	viper.SetDefault("api_version", "2024-10-15")
	viper.SetDefault("page_limit", 100)
	viper.SetDefault("max_retries", 3)
	viper.SetDefault("retry_after_default", 60*time.Second)
	viper.SetDefault("update_delay", time.Second)

	// Default project filters; empty disables the filter.
	viper.SetDefault("target_runtime", "net6.0")
	viper.SetDefault("origins", "azure-repos")

	viper.SetDefault("default_tag_key", "Testing")
	viper.SetDefault("default_tag_value", "DefaultTest")

	viper.SetDefault("redis_addr", "")
	viper.SetDefault("cache_ttl", 5*time.Minute)
	viper.SetDefault("metrics_addr", "")

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

// Load reads the configuration from viper (env + optional config file).
// A missing API token is a fatal startup condition.
func Load() (*Config, error) {
	viper.SetEnvPrefix("SNYK")
	viper.AutomaticEnv()
	SetDefaults()

	if dir, err := Dir(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		_ = viper.ReadInConfig()
	}

	// Explicit Gets rather than Unmarshal: AutomaticEnv only resolves
	// environment variables on key lookup.
	cfg := &Config{
		Token:             viper.GetString("api_token"),
		BaseURL:           viper.GetString("base_url"),
		APIVersion:        viper.GetString("api_version"),
		PageLimit:         viper.GetInt("page_limit"),
		MaxRetries:        viper.GetInt("max_retries"),
		RetryAfterDefault: viper.GetDuration("retry_after_default"),
		UpdateDelay:       viper.GetDuration("update_delay"),
		TargetRuntime:     viper.GetString("target_runtime"),
		Origins:           viper.GetString("origins"),
		DefaultTagKey:     viper.GetString("default_tag_key"),
		DefaultTagValue:   viper.GetString("default_tag_value"),
		RedisAddr:         viper.GetString("redis_addr"),
		CacheTTL:          viper.GetDuration("cache_ttl"),
		MetricsAddr:       viper.GetString("metrics_addr"),
		LogLevel:          viper.GetString("log_level"),
		LogJSON:           viper.GetBool("log_json"),
	}

	if cfg.Token == "" {
		// The populated config is still returned so diagnostics
		// (config show) can render the effective values.
		return cfg, ErrMissingToken
	}

	return cfg, nil
}
