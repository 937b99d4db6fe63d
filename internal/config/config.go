// Package config loads and validates the service configuration.
// Source priority (highest to lowest):
//  1. Environment variables (OPENAI_API_KEY, PROMPT_CACHE_DSN, ...)
//  2. Config file path passed by the caller
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "24h" parse naturally.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the plain time.Duration value.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration document.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Identity     IdentityConfig     `yaml:"identity"`
	SessionCache SessionCacheConfig `yaml:"session_cache"`
	PromptCache  PromptCacheConfig  `yaml:"prompt_cache"`
	Regeneration RegenerationConfig `yaml:"regeneration"`
	Sweep        SweepConfig        `yaml:"sweep"`
	Generation   GenerationConfig   `yaml:"generation"`
}

// HTTPConfig configures the serving surface.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// SweepToken is the shared secret the scheduler presents to trigger a
	// sweep. Empty disables the trigger endpoint.
	SweepToken string `yaml:"sweep_token"`
}

// DatabaseConfig selects the durable store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres
	DSN    string `yaml:"dsn"`
}

// IdentityConfig points at the external identity provider.
type IdentityConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SessionCacheConfig bounds the in-memory session cache.
type SessionCacheConfig struct {
	TTL             Duration `yaml:"ttl"`
	JanitorInterval Duration `yaml:"janitor_interval"`
}

// PromptCacheConfig configures the read-through prompt record cache.
type PromptCacheConfig struct {
	Capacity           int      `yaml:"capacity"`
	NumShards          int      `yaml:"num_shards"`
	TTL                Duration `yaml:"ttl"`
	EvictionPercentage int      `yaml:"eviction_percentage"`
	EvictionInterval   Duration `yaml:"eviction_interval"`
}

// RegenerationConfig configures the regeneration engine.
type RegenerationConfig struct {
	ValidityWindow Duration `yaml:"validity_window"`
	RefreshTimeout Duration `yaml:"refresh_timeout"`
	MaxBackground  int      `yaml:"max_background"`
}

// SweepConfig configures the reconciliation sweep.
type SweepConfig struct {
	Concurrency int      `yaml:"concurrency"`
	ItemTimeout Duration `yaml:"item_timeout"`
}

// GenerationConfig configures the generation service client.
type GenerationConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Count   int    `yaml:"count"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP:     HTTPConfig{Addr: ":8080"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "file:prompts.db?_journal_mode=WAL"},
		SessionCache: SessionCacheConfig{
			TTL:             Duration(5 * time.Minute),
			JanitorInterval: Duration(time.Minute),
		},
		PromptCache: PromptCacheConfig{
			Capacity:           10000,
			NumShards:          64,
			TTL:                Duration(time.Minute),
			EvictionPercentage: 10,
		},
		Regeneration: RegenerationConfig{
			ValidityWindow: Duration(24 * time.Hour),
			RefreshTimeout: Duration(30 * time.Second),
			MaxBackground:  8,
		},
		Sweep: SweepConfig{
			Concurrency: 4,
			ItemTimeout: Duration(30 * time.Second),
		},
		Generation: GenerationConfig{Model: "gpt-4o-mini", Count: 5},
	}
}

// Load reads path (optional), layers env overrides on top of the defaults,
// and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PROMPT_CACHE_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("PROMPT_CACHE_SWEEP_TOKEN"); v != "" {
		c.HTTP.SweepToken = v
	}
	if v := os.Getenv("PROMPT_CACHE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("PROMPT_CACHE_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("IDENTITY_BASE_URL"); v != "" {
		c.Identity.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Generation.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Generation.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Generation.Model = v
	}
}

// Validate checks the configuration document.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HTTP),
		validation.Field(&c.Database),
		validation.Field(&c.SessionCache),
		validation.Field(&c.PromptCache),
		validation.Field(&c.Regeneration),
		validation.Field(&c.Sweep),
	)
}

// Validate checks the HTTP section.
func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
	)
}

// Validate checks the database section.
func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In("sqlite", "postgres")),
		validation.Field(&c.DSN, validation.Required),
	)
}

// Validate checks the session cache section.
func (c SessionCacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTL, validation.Required, validation.Min(Duration(time.Second))),
	)
}

// Validate checks the prompt cache section.
func (c PromptCacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(Duration(time.Millisecond))),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// Validate checks the regeneration section.
func (c RegenerationConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ValidityWindow, validation.Required, validation.Min(Duration(time.Minute))),
		validation.Field(&c.RefreshTimeout, validation.Required, validation.Min(Duration(time.Second))),
		validation.Field(&c.MaxBackground, validation.Required, validation.Min(1)),
	)
}

// Validate checks the sweep section.
func (c SweepConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1)),
		validation.Field(&c.ItemTimeout, validation.Required, validation.Min(Duration(time.Second))),
	)
}
