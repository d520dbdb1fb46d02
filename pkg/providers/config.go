package providers

import (
	"errors"
	"time"
)

// Provider kinds understood by [Create]. The OpenAI-compatible kinds differ
// only in default base URL and credential variable; they all speak the Chat
// Completions wire format.
const (
	KindOpenAI     = "openai"
	KindGroq       = "groq"
	KindOpenRouter = "openrouter"
	KindVLLM       = "vllm"
	KindOllama     = "ollama"
)

// DefaultCredentialEnv is the shared environment variable consulted when a
// kind-specific variable is unset.
const DefaultCredentialEnv = "PARLEY_API_KEY"

// Default values applied by [Create] when the corresponding Config field is
// zero.
const (
	DefaultMaxTokens = 4096
	DefaultTimeout   = 2 * time.Minute
)

// ErrNoCredential is returned by [Create] when the kind requires an API key
// and neither the config nor the environment supplies one.
var ErrNoCredential = errors.New("providers: missing credential")

// ErrUnknownKind is returned by [Create] for a kind it has no builder for.
var ErrUnknownKind = errors.New("providers: unknown kind")

// Config describes one provider. The zero values of BaseURL, MaxTokens and
// Timeout mean "use the kind's default". Create never mutates a Config it is
// given; adjustments produce a new value.
type Config struct {
	// Name labels the provider in logs and diagnostics. Defaults to Kind.
	Name string
	// Kind selects the adapter, one of the Kind constants.
	Kind string
	// Model is the model identifier to request. Required.
	Model string
	// BaseURL overrides the kind's default endpoint. Trailing slashes are
	// trimmed.
	BaseURL string
	// APIKey is the explicit credential. When empty the kind's environment
	// variable and then DefaultCredentialEnv are consulted.
	APIKey string
	// Temperature is the sampling temperature; zero means provider default.
	Temperature float64
	// MaxTokens is the response token ceiling sent with every completion.
	MaxTokens int
	// Timeout bounds each completion HTTP call.
	Timeout time.Duration
	// Stream records the caller's streaming preference. Calls are issued
	// blocking either way; the flag travels into dialog options.
	Stream bool
	// Probe selects how Create verifies the configuration.
	Probe ProbeMode
	// Params are extra top-level fields merged into completion request
	// bodies. Typed fields win on key collisions.
	Params map[string]any
	// Headers are extra HTTP headers applied to every request.
	Headers map[string]string
}

// WithMaxTokens returns a copy of the config with the token ceiling replaced.
func (c Config) WithMaxTokens(n int) Config {
	c.MaxTokens = n
	return c
}
