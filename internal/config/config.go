// Package config handles cpf configuration.
package config

import (
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/HartBrook/cpf/internal/errors"
)

// EncodeConfig contains encoder settings.
type EncodeConfig struct {
	// Preprocess runs the deterministic cleanup before encoding. Nil means true.
	Preprocess         *bool `yaml:"preprocess,omitempty"`
	PathAliasMinLength int   `yaml:"path_alias_min_length,omitempty"`
	PathAliasMinCount  int   `yaml:"path_alias_min_count,omitempty"`
}

// ShouldPreprocess reports whether pre-processing is enabled.
func (e *EncodeConfig) ShouldPreprocess() bool {
	return e.Preprocess == nil || *e.Preprocess
}

// Validate validates the encoder settings.
func (e EncodeConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.PathAliasMinLength, validation.Min(1)),
		validation.Field(&e.PathAliasMinCount, validation.Min(2)),
	)
}

// CacheConfig contains cache settings.
type CacheConfig struct {
	TTL string `yaml:"ttl"` // e.g., "24h"
}

// Validate validates the cache settings.
func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTL, validation.By(durationRule)),
	)
}

// StatsConfig contains token statistics settings.
type StatsConfig struct {
	Tokenizer string `yaml:"tokenizer,omitempty"`
}

// Validate validates the stats settings.
func (s StatsConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Tokenizer, validation.In(TokenizerEstimate)),
	)
}

// Config represents the cpf configuration file.
type Config struct {
	Version int `yaml:"version"`

	// Source is the default owner/repo for remote encodes.
	Source string `yaml:"source,omitempty"`

	// Trusted is a list of repos/orgs that remote encodes may read without a warning.
	// Examples: "acme-corp" (trusts all repos from org), "user/repo" (specific repo)
	Trusted []string `yaml:"trusted,omitempty"`

	// Abbreviations maps full terms to tokens, on top of the built-in table.
	Abbreviations map[string]string `yaml:"abbreviations,omitempty"`

	// AbbreviationsFile is a YAML or JSON term-to-token map merged after Abbreviations.
	AbbreviationsFile string `yaml:"abbreviations_file,omitempty"`

	Encode EncodeConfig `yaml:"encode,omitempty"`
	Cache  CacheConfig  `yaml:"cache"`
	Stats  StatsConfig  `yaml:"stats,omitempty"`
}

// Default values.
const (
	DefaultVersion            = 1
	DefaultCacheTTL           = "24h"
	DefaultPathAliasMinLength = 30
	DefaultPathAliasMinCount  = 2
	TokenizerEstimate         = "estimate"

	// ConfigEnv overrides the config file location.
	ConfigEnv = "CPF_CONFIG"
)

// Load reads config from CPF_CONFIG or the default location.
// A missing file yields the defaults.
func Load() (*Config, error) {
	if path := os.Getenv(ConfigEnv); path != "" {
		return LoadFrom(path, true)
	}
	return LoadFrom(NewPaths().ConfigFile, false)
}

// LoadFrom reads and validates config from a specific path. When required
// is false a missing file yields the defaults.
func LoadFrom(path string, required bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if required {
				return nil, errors.ConfigNotFound(path)
			}
			return Default(), nil
		}
		return nil, errors.Wrap(errors.ErrConfigInvalid, "failed to read config", "", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrConfigInvalid, "failed to parse config YAML", "Check config syntax", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Validate checks config for valid values.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Version, validation.In(DefaultVersion)),
		validation.Field(&c.Source, validation.By(repoRule)),
		validation.Field(&c.Encode),
		validation.Field(&c.Cache),
		validation.Field(&c.Stats),
	)
	if err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	return nil
}

// applyDefaults sets default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = DefaultVersion
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Encode.PathAliasMinLength == 0 {
		c.Encode.PathAliasMinLength = DefaultPathAliasMinLength
	}
	if c.Encode.PathAliasMinCount == 0 {
		c.Encode.PathAliasMinCount = DefaultPathAliasMinCount
	}
	if c.Stats.Tokenizer == "" {
		c.Stats.Tokenizer = TokenizerEstimate
	}
}

// TTLDuration returns the cache TTL as a time.Duration.
func (c *CacheConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		d, _ = time.ParseDuration(DefaultCacheTTL)
	}
	return d
}

// IsTrustedSource checks if a repo is in this config's trusted list.
func (c *Config) IsTrustedSource(repo string) bool {
	return IsTrusted(repo, c.Trusted)
}

func durationRule(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return validation.NewError("validation_duration", "must be a Go duration such as 24h")
	}
	return nil
}

func repoRule(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, _, err := ParseRepo(s); err != nil {
		return validation.NewError("validation_repo", "must be owner/repo")
	}
	return nil
}
