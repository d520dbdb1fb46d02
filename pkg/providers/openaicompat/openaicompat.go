// Package openaicompat provides a Completer implementation for
// OpenAI-compatible Chat Completions APIs (OpenAI, Groq, OpenRouter, vLLM and
// similar endpoints).
package openaicompat

import (
	"context"
	"fmt"

	"github.com/parleykit/parley/pkg/convo"
	"github.com/parleykit/parley/pkg/providers/provider"
	"github.com/parleykit/parley/pkg/providers/usage"
)

const completionsPath = "/v1/chat/completions"

var _ provider.Completer = (*Adapter)(nil)
var _ provider.SchemaCapable = (*Adapter)(nil)

// Adapter implements provider.Completer for OpenAI-compatible Chat
// Completions endpoints.
type Adapter struct {
	provider.Base
}

// New creates an Adapter for an OpenAI-compatible endpoint.
// The baseURL should have no trailing slash, e.g. "https://api.openai.com".
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	a.BaseURL = baseURL
	a.Auth = provider.Auth{Key: apiKey}
	a.Model = model
	a.MaxTokens = 4096

	return a
}

// SupportsJSONSchema reports that the endpoint accepts schema-constrained
// output via response_format.
func (a *Adapter) SupportsJSONSchema() bool { return true }

// Complete sends a conversation to the Chat Completions endpoint and returns
// the assistant's reply.
func (a *Adapter) Complete(ctx context.Context, t *convo.Transcript, preq provider.Request) (provider.Reply, error) {
	payload, err := provider.MergeParams(a.buildRequest(t, preq), a.Extra)
	if err != nil {
		return provider.Reply{}, fmt.Errorf("openaicompat: %w", err)
	}

	var resp apiResponse
	if err := a.PostJSON(ctx, completionsPath, payload, &resp); err != nil {
		return provider.Reply{}, fmt.Errorf("openaicompat: %w", err)
	}

	tc := usage.TokenCount{
		Input:  resp.Usage.PromptTokens,
		Output: resp.Usage.CompletionTokens,
	}
	a.Usage.Add(tc)

	if len(resp.Choices) == 0 {
		return provider.Reply{}, fmt.Errorf("openaicompat: empty choices in response")
	}

	text := ""
	if resp.Choices[0].Message.Content != nil {
		text = *resp.Choices[0].Message.Content
	}

	return provider.Reply{
		Message: convo.NewMessage(convo.Assistant, text),
		Usage:   tc,
	}, nil
}

// --- request types ---

type apiRequest struct {
	Model          string             `json:"model"`
	Messages       []apiMessage       `json:"messages"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	Temperature    *float64           `json:"temperature,omitempty"`
	Stream         bool               `json:"stream"` // Always false; the reply is read as a single JSON body.
	ResponseFormat *apiResponseFormat `json:"response_format,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponseFormat struct {
	Type       string         `json:"type"`
	JSONSchema *apiJSONSchema `json:"json_schema,omitempty"`
}

type apiJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict,omitempty"`
	Schema map[string]any `json:"schema"`
}

// --- response types ---

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message      apiRespMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type apiRespMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(t *convo.Transcript, preq provider.Request) apiRequest {
	req := apiRequest{
		Model:     a.Model,
		MaxTokens: a.MaxTokens,
	}

	if a.Temperature != 0 {
		temp := a.Temperature
		req.Temperature = &temp
	}

	switch preq.JSONMode {
	case provider.JSONNativeSchema:
		name := preq.SchemaName
		if name == "" {
			name = "response"
		}
		req.ResponseFormat = &apiResponseFormat{
			Type: "json_schema",
			JSONSchema: &apiJSONSchema{
				Name:   name,
				Strict: preq.Strict,
				Schema: preq.Schema,
			},
		}
	case provider.JSONNativeFree:
		req.ResponseFormat = &apiResponseFormat{Type: "json_object"}
	}

	for _, m := range t.Messages() {
		req.Messages = append(req.Messages, apiMessage{Role: m.Role.String(), Content: m.Text})
	}

	return req
}
