// Package config loads and validates the parley configuration file.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/parleykit/parley/pkg/providers"
)

// Default search locations, tried in order when no explicit path is given.
const (
	DefaultFile  = "parley.yaml"
	FallbackFile = ".parley/config.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Providers []ProviderSpec    `yaml:"providers"`
	Default   string            `yaml:"default"`
	Ask       AskDefaults       `yaml:"ask"`
	Negotiate NegotiateDefaults `yaml:"negotiate"`
}

// ProviderSpec describes one provider entry. It mirrors providers.Config
// with YAML-friendly field types: the timeout is a duration string and the
// credential may name an environment variable instead of carrying a value.
type ProviderSpec struct {
	Name        string            `yaml:"name"`
	Kind        string            `yaml:"kind"`
	Model       string            `yaml:"model"`
	BaseURL     string            `yaml:"base_url"`
	APIKey      string            `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	APIKeyEnv   string            `yaml:"api_key_env"`
	Temperature float64           `yaml:"temperature"`
	MaxTokens   int               `yaml:"max_tokens"`
	Timeout     string            `yaml:"timeout"` // Duration string (e.g. "90s", "2m").
	Stream      bool              `yaml:"stream"`
	Probe       string            `yaml:"probe"`
	Params      map[string]any    `yaml:"params"`
	Headers     map[string]string `yaml:"headers"`
}

// AskDefaults sets fallback dialog budgets for the ask command. Zero values
// mean the built-in defaults.
type AskDefaults struct {
	MaxInteractions int  `yaml:"max_interactions"`
	MaxWords        int  `yaml:"max_words"`
	MaxChars        int  `yaml:"max_chars"`
	TrimHistory     bool `yaml:"trim_history"`
}

// NegotiateDefaults sets fallback budgets for schema negotiation. Zero
// values mean the built-in defaults.
type NegotiateDefaults struct {
	MaxIterations   int `yaml:"max_iterations"`
	MaxInteractions int `yaml:"max_interactions"`
}

// Locate returns the configuration file to use: the explicit path when
// given, otherwise the first default location that exists.
func Locate(path string) (string, error) {
	if path != "" {
		return path, nil
	}

	for _, candidate := range []string{DefaultFile, FallbackFile} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config: no configuration file found (tried %s and %s)", DefaultFile, FallbackFile)
}

// Load reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are
// expanded before parsing, so API keys can be kept out of the file itself.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("config: load: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("config: at least one provider is required")
	}

	names := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("config: provider name is required")
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("config: duplicate provider name %q", p.Name)
		}
		names[p.Name] = struct{}{}

		if p.Kind == "" {
			return fmt.Errorf("config: provider %q: kind is required", p.Name)
		}
		if !slices.Contains(providers.Kinds(), p.Kind) {
			return fmt.Errorf("config: provider %q: unknown kind %q", p.Name, p.Kind)
		}
		if p.Model == "" {
			return fmt.Errorf("config: provider %q: model is required", p.Name)
		}
		if _, err := providers.ParseProbeMode(p.Probe); err != nil {
			return fmt.Errorf("config: provider %q: %w", p.Name, err)
		}
		if p.MaxTokens < 0 {
			return fmt.Errorf("config: provider %q: max_tokens must not be negative", p.Name)
		}
		if p.Timeout != "" {
			if _, err := time.ParseDuration(p.Timeout); err != nil {
				return fmt.Errorf("config: provider %q: invalid timeout: %w", p.Name, err)
			}
		}
	}

	if c.Default != "" {
		if _, ok := names[c.Default]; !ok {
			return fmt.Errorf("config: default provider %q is not defined", c.Default)
		}
	}

	if c.Ask.MaxInteractions < 0 || c.Ask.MaxWords < 0 || c.Ask.MaxChars < 0 {
		return fmt.Errorf("config: ask defaults must not be negative")
	}
	if c.Negotiate.MaxIterations < 0 || c.Negotiate.MaxInteractions < 0 {
		return fmt.Errorf("config: negotiate defaults must not be negative")
	}

	return nil
}

// Provider resolves a named entry into a provider configuration. An empty
// name selects the configured default, or the sole entry of a single-entry
// file.
func (c Config) Provider(name string) (providers.Config, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" && len(c.Providers) == 1 {
		name = c.Providers[0].Name
	}
	if name == "" {
		return providers.Config{}, fmt.Errorf("config: no provider selected and no default set")
	}

	for _, p := range c.Providers {
		if p.Name == name {
			return p.resolve()
		}
	}

	return providers.Config{}, fmt.Errorf("config: unknown provider %q", name)
}

func (p ProviderSpec) resolve() (providers.Config, error) {
	cfg := providers.Config{
		Name:        p.Name,
		Kind:        p.Kind,
		Model:       p.Model,
		BaseURL:     p.BaseURL,
		APIKey:      p.APIKey,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Stream:      p.Stream,
		Probe:       providers.ProbeMode(p.Probe),
		Params:      p.Params,
		Headers:     p.Headers,
	}

	if cfg.APIKey == "" && p.APIKeyEnv != "" {
		cfg.APIKey = os.Getenv(p.APIKeyEnv)
	}

	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return providers.Config{}, fmt.Errorf("config: provider %q: invalid timeout: %w", p.Name, err)
		}
		cfg.Timeout = d
	}

	return cfg, nil
}
