// Package config provides configuration handling for faktgen.
package config

import (
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hbollon/go-edlib"
	"github.com/spf13/viper"

	"faktgen/internal/errors"
	"faktgen/internal/model"
)

// Recursive bound policies.
const (
	RecursiveFallback = "fallback"
	RecursiveSkip     = "skip"
)

// Config represents the complete configuration.
type Config struct {
	Inputs       []string          `mapstructure:"inputs"`
	Output       string            `mapstructure:"output"`
	Workers      int               `mapstructure:"workers"`
	TypeMappings map[string]string `mapstructure:"type_mappings"`
	Options      Options           `mapstructure:"options"`
	Log          Log               `mapstructure:"log"`
}

// Options represents generation options.
type Options struct {
	IncludeTypes    []string `mapstructure:"include_types"`
	ExcludeTypes    []string `mapstructure:"exclude_types"`
	RecursiveBounds string   `mapstructure:"recursive_bounds"`
	Header          string   `mapstructure:"header"`
	Strict          bool     `mapstructure:"strict"`
}

// Log configures the zap logger.
type Log struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{
		Inputs:       DefaultInputs(),
		Output:       DefaultOutput,
		Workers:      runtime.NumCPU(),
		TypeMappings: DefaultTypeMappings(),
		Options:      DefaultOptions(),
		Log:          Log{Level: "info"},
	}
	cfg.normalize()
	return cfg
}

// NewViper returns a viper instance with defaults and FAKTGEN_ environment
// bindings. When configFile is empty, faktgen.{yaml,json,toml} in the
// working directory is used if present.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("FAKTGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", configFile)
		}
		return v, nil
	}

	v.SetConfigName("faktgen")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config")
		}
	}
	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile loads configuration from a file (YAML, JSON or TOML based on
// extension) on top of the defaults.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return Load(v)
}

// normalize lowercases type mapping keys. Viper folds map keys to lower
// case, so lookups are case-insensitive either way.
func (c *Config) normalize() {
	mappings := make(map[string]string, len(c.TypeMappings))
	for k, v := range c.TypeMappings {
		mappings[strings.ToLower(k)] = strings.ToLower(v)
	}
	c.TypeMappings = mappings
	if c.Options.RecursiveBounds == "" {
		c.Options.RecursiveBounds = RecursiveFallback
	}
}

// Validate checks option values and type mapping kinds.
func (c *Config) Validate() error {
	switch c.Options.RecursiveBounds {
	case RecursiveFallback, RecursiveSkip:
	default:
		return errors.WithHintf(errors.Newf("options.recursive_bounds: unknown policy %q", c.Options.RecursiveBounds),
			"use %q or %q", RecursiveFallback, RecursiveSkip)
	}

	names := make([]string, 0, len(c.TypeMappings))
	for name := range c.TypeMappings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		kind := model.PrimitiveKind(c.TypeMappings[name])
		if !kind.Valid() {
			err := errors.Newf("type_mappings.%s: unknown primitive kind %q", name, kind)
			if s := suggestKind(string(kind)); s != "" {
				err = errors.WithHintf(err, "did you mean %q?", s)
			}
			return err
		}
	}

	for _, pattern := range append(append([]string{}, c.Options.IncludeTypes...), c.Options.ExcludeTypes...) {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Newf("options: invalid type pattern %q", pattern)
		}
	}
	return nil
}

// suggestKind returns the primitive kind closest to a mistyped one, or "".
func suggestKind(kind string) string {
	best, bestDistance := "", 3
	for _, k := range primitiveKinds {
		if d := edlib.LevenshteinDistance(kind, string(k)); d < bestDistance {
			best, bestDistance = string(k), d
		}
	}
	return best
}

// PrimitiveKind maps a Kotlin type name to its primitive kind using the
// configured mappings.
func (c *Config) PrimitiveKind(name string) (model.PrimitiveKind, bool) {
	kind, ok := c.TypeMappings[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return model.PrimitiveKind(kind), true
}

// ShouldIncludeType checks if an interface should be generated based on the
// include and exclude patterns.
func (c *Config) ShouldIncludeType(name string) bool {
	// Check include list (if specified, type must match it)
	if len(c.Options.IncludeTypes) > 0 && !matchAny(c.Options.IncludeTypes, name) {
		return false
	}
	// Check exclude list
	return !matchAny(c.Options.ExcludeTypes, name)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
