package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/spf13/viper"
)

type (
	app struct {
		Name      string `json:"name" mapstructure:"name"`
		Env       string `json:"env" mapstructure:"env"`
		Timezone  string `json:"timezone" mapstructure:"timezone"`
		Version   string `json:"version" mapstructure:"version"`
		LogFormat string `json:"log_format" mapstructure:"log_format" validate:"omitempty,oneof=console json"`
		LogLevel  string `json:"log_level" mapstructure:"log_level"`
	}

	cloudflare struct {
		User string `json:"user" mapstructure:"user"`
		Key  string `json:"key" mapstructure:"key"`
		Zone string `json:"zone" mapstructure:"zone"`
		Org  string `json:"org" mapstructure:"org"`

		BaseURL       string `json:"base_url" mapstructure:"base_url" validate:"required,url"`
		Timeout       string `json:"timeout" mapstructure:"timeout" validate:"required"`
		RetryAttempts int    `json:"retry_attempts" mapstructure:"retry_attempts" validate:"min=1"`
		RetryDelay    string `json:"retry_delay" mapstructure:"retry_delay"`

		MaxPages      int `json:"max_pages" mapstructure:"max_pages" validate:"min=1"`
		PerPage       int `json:"per_page" mapstructure:"per_page" validate:"min=1"`
		ZonesPerPage  int `json:"zones_per_page" mapstructure:"zones_per_page" validate:"min=1"`
		RuleBatchSize int `json:"rule_batch_size" mapstructure:"rule_batch_size" validate:"min=1"`
	}

	report struct {
		Rows int `json:"rows" mapstructure:"rows" validate:"min=1"`
	}

	geoip struct {
		Enabled   bool   `json:"enabled" mapstructure:"enabled"`
		ASNDB     string `json:"asn_db" mapstructure:"asn_db"`
		CacheSize int    `json:"cache_size" mapstructure:"cache_size"`
	}

	Config struct {
		App        app        `json:"app" mapstructure:"app"`
		Cloudflare cloudflare `json:"cloudflare" mapstructure:"cloudflare"`
		Report     report     `json:"report" mapstructure:"report"`
		GeoIP      geoip      `json:"geoip" mapstructure:"geoip"`
	}

	// CloudflareConfig is an alias for the internal cloudflare struct for external access
	CloudflareConfig = cloudflare

	// GeoIPConfig is an alias for the internal geoip struct for external access
	GeoIPConfig = geoip
)

// Credentials holds the account identity sent with every API request
type Credentials struct {
	User string `validate:"required"`
	Key  string `validate:"required"`
}

var cfg *Config

// SetDefaults registers default values on the given viper instance
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "wafanalyzer")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("app.version", "2018.6.1")
	v.SetDefault("app.log_format", "console")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("cloudflare.base_url", "https://api.cloudflare.com/client/v4")
	v.SetDefault("cloudflare.timeout", "30s")
	v.SetDefault("cloudflare.retry_attempts", 1)
	v.SetDefault("cloudflare.retry_delay", "2s")
	v.SetDefault("cloudflare.max_pages", 10)
	v.SetDefault("cloudflare.per_page", 50)
	v.SetDefault("cloudflare.zones_per_page", 900)
	v.SetDefault("cloudflare.rule_batch_size", 25)

	v.SetDefault("report.rows", 15)

	v.SetDefault("geoip.enabled", false)
	v.SetDefault("geoip.cache_size", 4096)
}

// Init loads configuration from .config file, environment and bound flags.
// A missing config file is not an error; defaults apply.
func Init() error {
	v := viper.GetViper()
	SetDefaults(v)

	v.SetConfigName(".config")
	v.SetConfigType("json")
	v.AddConfigPath("./")
	v.AddConfigPath("$HOME/.wafanalyzer")

	v.SetEnvPrefix("WAFANALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	loaded, err := Load(v)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// Load unmarshals and validates configuration from a viper instance
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks struct tags and duration strings
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.ParseDuration(c.Cloudflare.Timeout); err != nil {
		return fmt.Errorf("invalid cloudflare.timeout %q: %w", c.Cloudflare.Timeout, err)
	}
	if c.Cloudflare.RetryDelay != "" {
		if _, err := time.ParseDuration(c.Cloudflare.RetryDelay); err != nil {
			return fmt.Errorf("invalid cloudflare.retry_delay %q: %w", c.Cloudflare.RetryDelay, err)
		}
	}
	if c.GeoIP.Enabled && c.GeoIP.ASNDB == "" {
		return fmt.Errorf("geoip.asn_db is required when geoip is enabled")
	}
	return nil
}

// Validate ensures both user and key are present
func (c Credentials) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("missing credentials: %w", err)
	}
	return nil
}

// Get returns the current configuration instance
func Get() *Config {
	return cfg
}
