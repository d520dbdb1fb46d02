// Package provider defines the boundary between the ask loop and concrete
// LLM adapters: the Completer interface, per-call request options and an
// embeddable base struct with shared HTTP plumbing.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/parleykit/parley/pkg/convo"
	"github.com/parleykit/parley/pkg/providers/usage"
)

// JSONMode selects how an adapter asks the model for structured output.
type JSONMode int

const (
	// JSONOff requests plain text.
	JSONOff JSONMode = iota
	// JSONTextual relies on prompt instructions alone; the wire request is a
	// plain completion.
	JSONTextual
	// JSONNativeSchema uses the provider's schema-constrained response format.
	JSONNativeSchema
	// JSONNativeFree uses the provider's generic JSON output mode without a
	// schema.
	JSONNativeFree
)

// Request carries the per-call options an adapter needs beyond the
// conversation itself.
type Request struct {
	JSONMode   JSONMode
	Schema     map[string]any // Schema definition for JSONNativeSchema, already unwrapped.
	SchemaName string         // Name for the schema envelope; adapters default it when empty.
	Strict     bool           // Ask the provider to enforce the schema strictly.
}

// Reply is an assistant turn plus the token usage of the call that produced
// it.
type Reply struct {
	Message convo.Message
	Usage   usage.TokenCount
}

// Completer sends a conversation to an LLM and returns the assistant's reply.
type Completer interface {
	Complete(ctx context.Context, t *convo.Transcript, req Request) (Reply, error)
}

// SchemaCapable reports whether a completer supports provider-native
// schema-constrained JSON output. Completers that do not implement it are
// treated as text-only.
type SchemaCapable interface {
	SupportsJSONSchema() bool
}

// UsageReporter provides token usage information from a completer.
// Completers that embed Base implement this interface automatically.
type UsageReporter interface {
	UsageTracker() *usage.Tracker
}

// Auth holds authentication settings for an LLM provider API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// Base holds shared state for LLM adapter implementations. Embed it in
// concrete adapter structs to get HTTP helpers, auth, custom headers, and
// usage tracking. Concrete types should define their own Complete method to
// shadow the default stub.
type Base struct {
	Model       string            // Model identifier (e.g. "gpt-4o-mini").
	Temperature float64           // Sampling temperature.
	MaxTokens   int               // Maximum tokens in the response.
	Auth        Auth              // Authentication settings.
	BaseURL     string            // API base URL (no trailing slash).
	Client      *http.Client      // HTTP client; falls back to a default client.
	Headers     map[string]string // Extra headers applied to every request.
	Extra       map[string]any    // Extra top-level fields merged into completion bodies.
	Usage       usage.Tracker     // Token usage tracker.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// NewBase creates a Base with the given settings.
// A nil client falls back to a shared default client at call time.
func NewBase(baseURL string, auth Auth, client *http.Client) Base {
	return Base{
		Auth:    auth,
		BaseURL: baseURL,
		Client:  client,
	}
}

// UsageTracker returns the adapter's token usage tracker.
func (b *Base) UsageTracker() *usage.Tracker { return &b.Usage }

// Complete is a stub that returns an error. Concrete adapters that embed Base
// should define their own Complete method to shadow this one.
func (b *Base) Complete(_ context.Context, _ *convo.Transcript, _ Request) (Reply, error) {
	return Reply{}, errors.New("provider: Complete not implemented")
}

// httpClient returns the configured client or a cached default client with a
// 10-minute timeout.
func (b *Base) httpClient() *http.Client {
	if b.Client != nil {
		return b.Client
	}

	b.clientOnce.Do(func() {
		b.defaultClient = &http.Client{Timeout: 10 * time.Minute}
	})

	return b.defaultClient
}

// NewRequest builds an *http.Request with the base URL, auth, and custom
// headers already applied.
func (b *Base) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := b.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	// Apply auth.
	if b.Auth.Key != "" {
		header := b.Auth.Header
		if header == "" {
			header = "Authorization"
		}

		value := b.Auth.Key
		if header == "Authorization" {
			scheme := b.Auth.Scheme
			if scheme == "" {
				scheme = "Bearer"
			}

			value = scheme + " " + value
		} else if b.Auth.Scheme != "" {
			value = b.Auth.Scheme + " " + value
		}

		req.Header.Set(header, value)
	}

	// Apply custom headers.
	for k, v := range b.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Do sends the request using the configured HTTP client.
func (b *Base) Do(req *http.Request) (*http.Response, error) {
	return b.httpClient().Do(req) //nolint:gosec // URL is built from trusted BaseURL config, not user input.
}

// PostJSON marshals payload as JSON, sends a POST to the given path, checks
// for a 2xx status, and unmarshals the response body into dest. A 429 status
// becomes a *RateLimitError, any other non-2xx status a *HTTPError. If dest
// is nil the response body is discarded after the status check.
func (b *Base) PostJSON(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := b.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := b.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		respBody, _ := io.ReadAll(resp.Body)
		return &RateLimitError{
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       string(respBody),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &HTTPError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// MergeParams overlays extra top-level keys onto a typed request payload.
// Keys already set by the typed request win; extra entries never override
// them. With no extra entries the payload is returned unchanged.
func MergeParams(payload any, extra map[string]any) (any, error) {
	if len(extra) == 0 {
		return payload, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var merged map[string]any
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	for k, v := range extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}

	return merged, nil
}
