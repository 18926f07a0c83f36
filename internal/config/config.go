// Package config loads crosslist settings from a .env file, an optional
// crosslist.toml and CROSSLIST_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/guarzo/crosslist/internal/connector"
	"github.com/guarzo/crosslist/internal/connector/ebay"
	"github.com/guarzo/crosslist/internal/connector/etsy"
	"github.com/guarzo/crosslist/internal/connector/registry"
	"github.com/guarzo/crosslist/internal/logging"
	"github.com/guarzo/crosslist/internal/normalize"
)

// EnvPrefix is prepended to every environment override, e.g.
// CROSSLIST_EBAY_CLIENT_ID for ebay.client_id.
const EnvPrefix = "CROSSLIST"

// Config holds all application configuration
type Config struct {
	Search SearchConfig
	Fees   map[string]decimal.Decimal
	Ebay   EbayConfig
	Etsy   EtsyConfig
	Depop  DepopConfig
	Log    LogConfig
}

// SearchConfig holds fan-out settings
type SearchConfig struct {
	DefaultPlatforms []string
	Deadline         time.Duration `validate:"gt=0"`
	ConnectorTimeout time.Duration `validate:"gt=0"`
}

// EbayConfig holds Browse API credentials
type EbayConfig struct {
	ClientID      string
	ClientSecret  string
	MarketplaceID string
	BaseURL       string `validate:"omitempty,url"`
}

// EtsyConfig holds Open API credentials
type EtsyConfig struct {
	APIKey  string
	BaseURL string `validate:"omitempty,url"`
}

// DepopConfig holds scraper settings
type DepopConfig struct {
	BaseURL string `validate:"omitempty,url"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"omitempty,oneof=debug info warn warning error"`
	Format string `validate:"omitempty,oneof=json console"`
	Output string
}

// Options controls where Load looks for files.
type Options struct {
	// EnvFile is loaded into the process environment first. Missing is fine.
	EnvFile string
	// ConfigPaths are searched for crosslist.toml.
	ConfigPaths []string
}

// DefaultOptions reads ./.env and ./crosslist.toml.
func DefaultOptions() Options {
	return Options{EnvFile: ".env", ConfigPaths: []string{"."}}
}

var validate = validator.New()

// Load builds the configuration.
// Priority (highest to lowest):
// 1. Environment variables with CROSSLIST_ prefix (a .env file counts)
// 2. crosslist.toml
// 3. Built-in defaults
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("crosslist")
	v.SetConfigType("toml")
	for _, p := range opts.ConfigPaths {
		v.AddConfigPath(p)
	}
	if len(opts.ConfigPaths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fees, err := loadFees(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Search: SearchConfig{
			DefaultPlatforms: splitList(v.GetStringSlice("search.default_platforms")),
			Deadline:         v.GetDuration("search.deadline"),
			ConnectorTimeout: v.GetDuration("search.connector_timeout"),
		},
		Fees: fees,
		Ebay: EbayConfig{
			ClientID:      v.GetString("ebay.client_id"),
			ClientSecret:  v.GetString("ebay.client_secret"),
			MarketplaceID: v.GetString("ebay.marketplace_id"),
			BaseURL:       v.GetString("ebay.base_url"),
		},
		Etsy: EtsyConfig{
			APIKey:  v.GetString("etsy.api_key"),
			BaseURL: v.GetString("etsy.base_url"),
		},
		Depop: DepopConfig{
			BaseURL: v.GetString("depop.base_url"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.default_platforms", []string{})
	v.SetDefault("search.deadline", "20s")
	v.SetDefault("search.connector_timeout", "15s")
	v.SetDefault("ebay.marketplace_id", "EBAY_US")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
}

// loadFees reads fees.<platform> for every platform with a default rate plus
// any extra platform named in the config file.
func loadFees(v *viper.Viper) (map[string]decimal.Decimal, error) {
	names := make(map[string]bool)
	for name := range normalize.DefaultFeeRates() {
		names[name] = true
	}
	for name := range v.GetStringMap("fees") {
		names[strings.ToLower(name)] = true
	}

	fees := make(map[string]decimal.Decimal)
	for name := range names {
		raw := strings.TrimSpace(v.GetString("fees." + name))
		if raw == "" {
			continue
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("fees.%s: %w", name, err)
		}
		if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("fees.%s: rate %s must be in [0, 1)", name, rate)
		}
		fees[name] = rate
	}
	return fees, nil
}

// splitList accepts both TOML arrays and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for _, name := range c.Search.DefaultPlatforms {
		if _, ok := connector.ParsePlatform(name); !ok {
			return fmt.Errorf("invalid configuration: search.default_platforms: %w: %q", connector.ErrUnknownPlatform, name)
		}
	}
	return nil
}

// Credentials adapts the loaded secrets to a connector.CredentialSource.
// Platforms without secrets get no entry.
func (c *Config) Credentials() connector.CredentialSource {
	creds := connector.StaticCredentials{}
	if c.Ebay.ClientID != "" || c.Ebay.ClientSecret != "" {
		creds[connector.PlatformEbay] = connector.Credentials{
			ebay.CredClientID:      c.Ebay.ClientID,
			ebay.CredClientSecret:  c.Ebay.ClientSecret,
			ebay.CredMarketplaceID: c.Ebay.MarketplaceID,
		}
	}
	if c.Etsy.APIKey != "" {
		creds[connector.PlatformEtsy] = connector.Credentials{etsy.CredAPIKey: c.Etsy.APIKey}
	}
	return creds
}

// RegistryOptions carries base URL overrides to the connector registry.
func (c *Config) RegistryOptions() registry.Options {
	return registry.Options{
		EbayBaseURL:  c.Ebay.BaseURL,
		EtsyBaseURL:  c.Etsy.BaseURL,
		DepopBaseURL: c.Depop.BaseURL,
	}
}

// Logging returns the logger settings.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Output: c.Log.Output,
	}
}
