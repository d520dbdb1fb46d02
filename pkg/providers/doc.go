// Package providers builds ready-to-use LLM completers from declarative
// configuration: it resolves credentials, applies per-kind defaults, probes
// the endpoint for reachability, and negotiates the token ceiling down when
// the endpoint rejects the configured one.
//
// It is organized into sub-packages:
//   - [github.com/parleykit/parley/pkg/providers/provider]: Completer interface, embeddable Base struct with HTTP helpers, auth, and custom headers
//   - [github.com/parleykit/parley/pkg/providers/usage]: thread-safe token usage tracker
//   - [github.com/parleykit/parley/pkg/providers/openaicompat]: adapter for OpenAI-compatible Chat Completions endpoints
//   - [github.com/parleykit/parley/pkg/providers/ollama]: adapter for a local Ollama server
//
// The entry point is [Create], which takes a [Config] and returns a [Built]
// carrying the resolved configuration, the completer, and the probe outcome.
package providers
