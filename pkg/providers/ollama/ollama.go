// Package ollama provides a Completer implementation for the chat API of a
// local Ollama server.
package ollama

import (
	"context"
	"fmt"

	"github.com/parleykit/parley/pkg/convo"
	"github.com/parleykit/parley/pkg/providers/provider"
	"github.com/parleykit/parley/pkg/providers/usage"
)

const chatPath = "/api/chat"

// DefaultBaseURL is the address of a locally running Ollama server.
const DefaultBaseURL = "http://localhost:11434"

var _ provider.Completer = (*Adapter)(nil)
var _ provider.SchemaCapable = (*Adapter)(nil)

// Adapter implements provider.Completer for the Ollama chat API.
type Adapter struct {
	provider.Base
}

// New creates an Adapter for an Ollama server. An empty baseURL falls back to
// DefaultBaseURL. Local servers need no API key; Auth can be set afterwards
// for proxied deployments.
func New(baseURL, model string) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	a := &Adapter{}
	a.BaseURL = baseURL
	a.Model = model

	return a
}

// SupportsJSONSchema reports that the server accepts a JSON schema as the
// chat format field.
func (a *Adapter) SupportsJSONSchema() bool { return true }

// Complete sends a conversation to the Ollama chat API and returns the
// assistant's reply.
func (a *Adapter) Complete(ctx context.Context, t *convo.Transcript, preq provider.Request) (provider.Reply, error) {
	payload, err := provider.MergeParams(a.buildRequest(t, preq), a.Extra)
	if err != nil {
		return provider.Reply{}, fmt.Errorf("ollama: %w", err)
	}

	var resp apiResponse
	if err := a.PostJSON(ctx, chatPath, payload, &resp); err != nil {
		return provider.Reply{}, fmt.Errorf("ollama: %w", err)
	}

	tc := usage.TokenCount{
		Input:  resp.PromptEvalCount,
		Output: resp.EvalCount,
	}
	a.Usage.Add(tc)

	return provider.Reply{
		Message: convo.NewMessage(convo.Assistant, resp.Message.Content),
		Usage:   tc,
	}, nil
}

// --- request types ---

type apiRequest struct {
	Model    string       `json:"model"`
	Messages []apiMessage `json:"messages"`
	Stream   bool         `json:"stream"` // Always false; the reply is read as a single JSON body.
	Format   any          `json:"format,omitempty"`
	Options  *apiOptions  `json:"options,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

// --- response types ---

type apiResponse struct {
	Message         apiMessage `json:"message"`
	Done            bool       `json:"done"`
	PromptEvalCount int        `json:"prompt_eval_count"`
	EvalCount       int        `json:"eval_count"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(t *convo.Transcript, preq provider.Request) apiRequest {
	req := apiRequest{Model: a.Model}

	if a.Temperature != 0 || a.MaxTokens > 0 {
		opts := &apiOptions{NumPredict: a.MaxTokens}
		if a.Temperature != 0 {
			temp := a.Temperature
			opts.Temperature = &temp
		}
		req.Options = opts
	}

	switch preq.JSONMode {
	case provider.JSONNativeSchema:
		req.Format = preq.Schema
	case provider.JSONNativeFree:
		req.Format = "json"
	}

	for _, m := range t.Messages() {
		req.Messages = append(req.Messages, apiMessage{Role: m.Role.String(), Content: m.Text})
	}

	return req
}
