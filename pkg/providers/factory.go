package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/parleykit/parley/pkg/providers/ollama"
	"github.com/parleykit/parley/pkg/providers/openaicompat"
	"github.com/parleykit/parley/pkg/providers/provider"
)

// kindSpec fixes the per-kind wiring: default endpoint, credential variable,
// the wire field named in token-limit rejections, and how to build the
// adapter and a minimal probe body.
type kindSpec struct {
	baseURL    string
	envKey     string
	needsKey   bool
	tokenField string
	probePath  string
	build      func(Config) provider.Completer
	probeBody  func(Config) map[string]any
}

var kinds = map[string]kindSpec{
	KindOpenAI: {
		baseURL:    "https://api.openai.com",
		envKey:     "OPENAI_API_KEY",
		needsKey:   true,
		tokenField: "max_tokens",
		probePath:  "/v1/chat/completions",
		build:      buildOpenAICompat,
		probeBody:  chatProbeBody,
	},
	KindGroq: {
		baseURL:    "https://api.groq.com/openai",
		envKey:     "GROQ_API_KEY",
		needsKey:   true,
		tokenField: "max_tokens",
		probePath:  "/v1/chat/completions",
		build:      buildOpenAICompat,
		probeBody:  chatProbeBody,
	},
	KindOpenRouter: {
		baseURL:    "https://openrouter.ai/api",
		envKey:     "OPENROUTER_API_KEY",
		needsKey:   true,
		tokenField: "max_tokens",
		probePath:  "/v1/chat/completions",
		build:      buildOpenAICompat,
		probeBody:  chatProbeBody,
	},
	KindVLLM: {
		baseURL:    "http://localhost:8000",
		envKey:     "VLLM_API_KEY",
		needsKey:   false,
		tokenField: "max_tokens",
		probePath:  "/v1/chat/completions",
		build:      buildOpenAICompat,
		probeBody:  chatProbeBody,
	},
	KindOllama: {
		baseURL:    ollama.DefaultBaseURL,
		envKey:     "OLLAMA_API_KEY",
		needsKey:   false,
		tokenField: "num_predict",
		probePath:  "/api/chat",
		build:      buildOllama,
		probeBody:  ollamaProbeBody,
	},
}

// Kinds lists the supported provider kinds in stable order.
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)

	return names
}

// Factory creates providers. Lookup resolves environment variables and
// defaults to os.Getenv; tests inject a map-backed lookup instead of
// mutating the process environment.
type Factory struct {
	Lookup func(string) string
}

// Built pairs a resolved configuration with its completer and the probe
// outcome. The configuration is final: the ceiling it carries is the one the
// probe confirmed, and the completer was built from it.
type Built struct {
	Config    Config
	Completer provider.Completer
	Probe     Outcome
}

// Resolve validates a config and applies credential resolution and kind
// defaults without touching the network. On a missing credential the
// defaults-applied config is still returned alongside the error, so
// diagnostics can keep inspecting the other layers.
func (f Factory) Resolve(cfg Config) (Config, error) {
	spec, ok := kinds[cfg.Kind]
	if !ok {
		return cfg, fmt.Errorf("%w %q", ErrUnknownKind, cfg.Kind)
	}

	if cfg.Model == "" {
		return cfg, fmt.Errorf("providers: model is required for kind %q", cfg.Kind)
	}

	mode, err := ParseProbeMode(string(cfg.Probe))
	if err != nil {
		return cfg, err
	}
	cfg.Probe = mode

	key, err := f.resolveCredential(cfg, spec)
	if err != nil {
		return applyDefaults(cfg, spec), err
	}
	cfg.APIKey = key

	return applyDefaults(cfg, spec), nil
}

// Create resolves a provider configuration and verifies it against the
// endpoint. Missing credentials and malformed configs fail fast; a failed
// probe does not. The returned Built is usable either way, with the probe
// outcome attached so callers can flag unverified providers.
func (f Factory) Create(ctx context.Context, cfg Config) (*Built, error) {
	cfg, err := f.Resolve(cfg)
	if err != nil {
		return nil, err
	}

	spec := kinds[cfg.Kind]

	out := runProbe(ctx, cfg, spec)
	if out.AdjustedMaxTokens > 0 {
		slog.Debug("lowered max tokens after probe",
			"provider", cfg.Name, "from", cfg.MaxTokens, "to", out.AdjustedMaxTokens)
		cfg = cfg.WithMaxTokens(out.AdjustedMaxTokens)
	}

	if !out.OK {
		slog.Warn("provider probe failed, configuration is unverified",
			"provider", cfg.Name, "mode", string(out.Mode), "detail", out.Detail)
	}

	return &Built{Config: cfg, Completer: spec.build(cfg), Probe: out}, nil
}

// Create builds a provider with the default environment lookup.
func Create(ctx context.Context, cfg Config) (*Built, error) {
	return Factory{}.Create(ctx, cfg)
}

// resolveCredential returns the API key for a config: the explicit value if
// set, then the kind's environment variable, then DefaultCredentialEnv.
// Kinds that require a key fail when all three are empty.
func (f Factory) resolveCredential(cfg Config, spec kindSpec) (string, error) {
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}

	lookup := f.Lookup
	if lookup == nil {
		lookup = os.Getenv
	}

	if spec.envKey != "" {
		if v := lookup(spec.envKey); v != "" {
			return v, nil
		}
	}

	if v := lookup(DefaultCredentialEnv); v != "" {
		return v, nil
	}

	if spec.needsKey {
		return "", fmt.Errorf("%w for kind %q: set %s or %s", ErrNoCredential, cfg.Kind, spec.envKey, DefaultCredentialEnv)
	}

	return "", nil
}

func applyDefaults(cfg Config, spec kindSpec) Config {
	if cfg.Name == "" {
		cfg.Name = cfg.Kind
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = spec.baseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return cfg
}

// --- adapter builders ---

func buildOpenAICompat(cfg Config) provider.Completer {
	a := openaicompat.New(cfg.BaseURL, cfg.APIKey, cfg.Model)
	a.Temperature = cfg.Temperature
	a.MaxTokens = cfg.MaxTokens
	a.Client = &http.Client{Timeout: cfg.Timeout}
	a.Headers = cfg.Headers
	a.Extra = cfg.Params

	return a
}

func buildOllama(cfg Config) provider.Completer {
	a := ollama.New(cfg.BaseURL, cfg.Model)
	if cfg.APIKey != "" {
		a.Auth = provider.Auth{Key: cfg.APIKey}
	}
	a.Temperature = cfg.Temperature
	a.MaxTokens = cfg.MaxTokens
	a.Client = &http.Client{Timeout: cfg.Timeout}
	a.Headers = cfg.Headers
	a.Extra = cfg.Params

	return a
}

// --- probe bodies ---

func chatProbeBody(cfg Config) map[string]any {
	return map[string]any{
		"model":      cfg.Model,
		"messages":   []map[string]string{{"role": "user", "content": "ping"}},
		"max_tokens": cfg.MaxTokens,
		"stream":     false,
	}
}

func ollamaProbeBody(cfg Config) map[string]any {
	return map[string]any{
		"model":    cfg.Model,
		"messages": []map[string]string{{"role": "user", "content": "ping"}},
		"stream":   false,
		"options":  map[string]any{"num_predict": cfg.MaxTokens},
	}
}
