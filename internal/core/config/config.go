// Package config loads service settings from defaults, an optional
// config.yaml and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServiceInfo is the metadata advertised in GetCapabilities.
type ServiceInfo struct {
	Title         string   `mapstructure:"service_title"`
	Abstract      string   `mapstructure:"service_abstract"`
	Keywords      []string `mapstructure:"service_keywords"`
	ProviderName  string   `mapstructure:"provider_name"`
	ProviderSite  string   `mapstructure:"provider_site"`
	ContactPerson string   `mapstructure:"contact_person"`
	ContactEmail  string   `mapstructure:"contact_email"`
}

// HasProviderDetails reports whether enough is configured for a schema-valid
// ServiceProvider block. A bare provider name is not enough.
func (s ServiceInfo) HasProviderDetails() bool {
	return s.ProviderSite != "" || s.ContactPerson != "" || s.ContactEmail != ""
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"metrics_enabled"`
	Addr    string `mapstructure:"metrics_addr"`
	Path    string `mapstructure:"metrics_path"`
}

type Config struct {
	Addr       string `mapstructure:"addr"`
	LogLevel   string `mapstructure:"log_level"`
	LogConsole bool   `mapstructure:"log_console"`
	LogSampleN int    `mapstructure:"log_sample_n"`

	W3WAPIKey  string `mapstructure:"w3w_api_key"`
	W3WBaseURL string `mapstructure:"w3w_base_url"`

	// points per degree on both axes
	GridDensity        float64       `mapstructure:"grid_density"`
	DefaultMaxFeatures int           `mapstructure:"default_max_features"`
	MaxFeaturesLimit   int           `mapstructure:"max_features_limit"`
	GeocodeTimeout     time.Duration `mapstructure:"geocode_timeout"`
	GeocodeWorkers     int           `mapstructure:"geocode_workers"`
	DefaultLanguage    string        `mapstructure:"default_language"`
	DefaultWFSVersion  string        `mapstructure:"default_wfs_version"`

	// PublicURL overrides the service URL advertised in capabilities;
	// empty means derive it from the incoming request.
	PublicURL string `mapstructure:"public_url"`

	// EnableCaching is accepted for compatibility and has no effect.
	EnableCaching bool `mapstructure:"enable_caching"`

	Service ServiceInfo   `mapstructure:",squash"`
	Metrics MetricsConfig `mapstructure:",squash"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8090")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_console", false)
	v.SetDefault("log_sample_n", 0)

	v.SetDefault("w3w_api_key", "")
	v.SetDefault("w3w_base_url", "https://api.what3words.com/v3")

	v.SetDefault("grid_density", 1000.0)
	v.SetDefault("default_max_features", 100)
	v.SetDefault("max_features_limit", 1000)
	v.SetDefault("geocode_timeout", 30*time.Second)
	v.SetDefault("geocode_workers", 8)
	v.SetDefault("default_language", "en")
	v.SetDefault("default_wfs_version", "2.0.0")
	v.SetDefault("public_url", "")
	v.SetDefault("enable_caching", false)

	v.SetDefault("service_title", "What3Words WFS")
	v.SetDefault("service_abstract", "Three word addresses for a regular grid over the requested area.")
	v.SetDefault("service_keywords", []string{"what3words", "WFS", "geocoding"})
	v.SetDefault("provider_name", "")
	v.SetDefault("provider_site", "")
	v.SetDefault("contact_person", "")
	v.SetDefault("contact_email", "")

	v.SetDefault("metrics_enabled", false)
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("metrics_path", "/metrics")
}

// Load reads configuration from file and environment variables.
// Environment keys are the upper-cased setting names, e.g. W3W_API_KEY.
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Service.Keywords = splitKeywords(cfg.Service.Keywords)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// env values arrive as one comma-separated string
func splitKeywords(in []string) []string {
	var out []string
	for _, k := range in {
		for p := range strings.SplitSeq(k, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate checks that required configuration fields are present and sane.
func (c Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, "addr is required")
	}
	if strings.TrimSpace(c.W3WBaseURL) == "" {
		errs = append(errs, "w3w_base_url is required")
	}
	if c.GridDensity <= 0 {
		errs = append(errs, fmt.Sprintf("grid_density must be positive, got %g", c.GridDensity))
	}
	if c.DefaultMaxFeatures <= 0 {
		errs = append(errs, fmt.Sprintf("default_max_features must be positive, got %d", c.DefaultMaxFeatures))
	}
	if c.MaxFeaturesLimit < c.DefaultMaxFeatures {
		errs = append(errs, fmt.Sprintf("max_features_limit (%d) must be >= default_max_features (%d)",
			c.MaxFeaturesLimit, c.DefaultMaxFeatures))
	}
	if c.GeocodeTimeout <= 0 {
		errs = append(errs, "geocode_timeout must be positive")
	}
	if c.GeocodeWorkers <= 0 {
		errs = append(errs, fmt.Sprintf("geocode_workers must be positive, got %d", c.GeocodeWorkers))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Sprintf("metrics_path must start with /, got %q", c.Metrics.Path))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
