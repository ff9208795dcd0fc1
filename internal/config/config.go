// Package config loads and validates report configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. WKREPORT_WEBHOOK_URL.
const EnvPrefix = "WKREPORT"

// Config captures all knobs for one report run.
type Config struct {
	Profile ProfileConfig `mapstructure:"profile"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	DryRun  bool          `mapstructure:"dry_run"`
}

// ProfileConfig identifies the profile to scrape.
type ProfileConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
}

// HTTPConfig configures the profile fetch.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// WebhookConfig configures report delivery.
type WebhookConfig struct {
	URL            string `mapstructure:"url"`
	Username       string `mapstructure:"username"`
	IconURL        string `mapstructure:"icon_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// MetricsConfig controls the optional Pushgateway export.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// NewViper returns a Viper instance with defaults and env overrides wired.
// Callers may bind CLI flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads the optional config file at path into v and decodes the result.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("profile.base_url", "https://www.wanikani.com")
	v.SetDefault("profile.username", "")
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.user_agent", "wkreport/1.0 (+https://github.com/JakeFAU/wanikani-report)")
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.username", "Crabigator")
	v.SetDefault("webhook.icon_url", "https://global.discourse-cdn.com/wanikanicommunity/original/4X/6/2/a/62a8b0f4c59ff2c5b6651ffcf43531480b3e5297.png")
	v.SetDefault("webhook.timeout_seconds", 10)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "wkreport")
	v.SetDefault("dry_run", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Profile.Username) == "" {
		return fmt.Errorf("profile.username must be set")
	}
	if err := validateURL("profile.base_url", c.Profile.BaseURL, true); err != nil {
		return err
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Webhook.TimeoutSeconds <= 0 {
		return fmt.Errorf("webhook.timeout_seconds must be > 0")
	}
	if err := validateURL("webhook.url", c.Webhook.URL, false); err != nil {
		return err
	}
	if err := validateURL("metrics.pushgateway_url", c.Metrics.PushgatewayURL, false); err != nil {
		return err
	}
	if c.Metrics.PushgatewayURL != "" && c.Metrics.Job == "" {
		return fmt.Errorf("metrics.job must be set when metrics.pushgateway_url is set")
	}
	return nil
}

func validateURL(key, raw string, required bool) error {
	if raw == "" {
		if required {
			return fmt.Errorf("%s must be set", key)
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

// FetchTimeout is the bound on the profile request.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// WebhookTimeout is the bound on the webhook POST.
func (c Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhook.TimeoutSeconds) * time.Second
}
