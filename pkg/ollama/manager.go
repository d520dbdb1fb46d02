// Package ollama manages models on a local Ollama server: listing, pulling
// with streamed progress, and deletion.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the address of a locally running Ollama server.
const DefaultBaseURL = "http://localhost:11434"

// defaultClient has no client-side timeout. Pulls can run for a long time
// and are bounded by the caller's context instead.
var defaultClient = &http.Client{}

// Model is one entry of the server's local model list.
type Model struct {
	Name       string    `json:"name"`
	Digest     string    `json:"digest"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ProgressFunc receives one pull status line. Total is zero until the server
// reports a layer size; proportional display only makes sense when it is
// positive.
type ProgressFunc func(status string, completed, total int64)

// Manager performs model operations against one Ollama server.
// The zero value targets DefaultBaseURL with a default client.
type Manager struct {
	BaseURL string
	Client  *http.Client
}

// New creates a Manager for the given server. Trailing slashes are trimmed;
// an empty baseURL falls back to DefaultBaseURL.
func New(baseURL string) *Manager {
	return &Manager{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (m *Manager) baseURL() string {
	if m.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(m.BaseURL, "/")
}

func (m *Manager) client() *http.Client {
	if m.Client != nil {
		return m.Client
	}
	return defaultClient
}

type tagsResponse struct {
	Models []Model `json:"models"`
}

// List returns the models available on the server.
func (m *Manager) List(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL()+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}

	resp, err := m.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: list models: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: list models: %s", serverError(resp))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("ollama: decode model list: %w", err)
	}

	return tags.Models, nil
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

type pullStatus struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Pull downloads a model, feeding each status line of the server's NDJSON
// stream to progress. Malformed lines are skipped; a line carrying an error
// field aborts the pull with that message.
func (m *Manager) Pull(ctx context.Context, name string, progress ProgressFunc) error {
	payload, err := json.Marshal(pullRequest{Name: name, Stream: true})
	if err != nil {
		return fmt.Errorf("ollama: marshal pull request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL()+"/api/pull", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client().Do(req)
	if err != nil {
		return fmt.Errorf("ollama: pull %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: pull %s: %s", name, serverError(resp))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024) // status lines can outgrow the default buffer

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("ollama: pull %s: %w", name, err)
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var st pullStatus
		if err := json.Unmarshal(line, &st); err != nil {
			// Malformed status lines are not fatal.
			continue
		}

		if st.Error != "" {
			return fmt.Errorf("ollama: pull %s: %s", name, st.Error)
		}

		if progress != nil {
			progress(st.Status, st.Completed, st.Total)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("ollama: pull %s: %w", name, err)
	}

	return nil
}

type deleteRequest struct {
	Name string `json:"name"`
}

// Delete removes a model and returns the refreshed model list. A failing
// delete surfaces the server's error message.
func (m *Manager) Delete(ctx context.Context, name string) ([]Model, error) {
	payload, err := json.Marshal(deleteRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal delete request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, m.baseURL()+"/api/delete", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: delete %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama: delete %s: %s", name, serverError(resp))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return m.List(ctx)
}

// serverError extracts the server's error message from a non-2xx response.
func serverError(resp *http.Response) string {
	body, _ := io.ReadAll(resp.Body)

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}

	if len(body) > 0 {
		return strings.TrimSpace(string(body))
	}

	return resp.Status
}
