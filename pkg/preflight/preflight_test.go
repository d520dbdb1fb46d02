package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/pkg/preflight"
	"github.com/parleykit/parley/pkg/providers"
)

const completionBody = `{"choices":[{"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1}}`

func noEnv(string) string { return "" }

// newAPIServer answers completion posts with the given status and body and
// every other request with a plain 200. posts counts completion requests.
func newAPIServer(t *testing.T, postStatus int, postBody string) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	posts := &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts.Add(1)
			w.WriteHeader(postStatus)
			_, _ = w.Write([]byte(postBody))
			return
		}

		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	return srv, posts
}

func checkNames(rep *preflight.Report) []string {
	names := make([]string, 0, len(rep.Checks))
	for _, c := range rep.Checks {
		names = append(names, c.Name)
	}

	return names
}

func TestRun_AllHealthy(t *testing.T) {
	srv, posts := newAPIServer(t, http.StatusOK, completionBody)

	rep := preflight.Run(context.Background(), providers.Factory{Lookup: noEnv}, providers.Config{
		Kind:    providers.KindVLLM,
		Model:   "qwen",
		BaseURL: srv.URL,
	})

	assert.True(t, rep.Healthy())
	assert.Equal(t, []string{
		preflight.CheckConnectivity,
		preflight.CheckEndpoint,
		preflight.CheckAuthModel,
		preflight.CheckCompatibility,
	}, checkNames(rep))
	assert.Equal(t, "All checks passed. The provider is ready to use.", rep.Recommendation)

	// One request for the transport probe and one for the full ask path.
	assert.Equal(t, int64(2), posts.Load())
}

func TestRun_AuthRejected(t *testing.T) {
	srv, _ := newAPIServer(t, http.StatusUnauthorized, `{"error":{"message":"invalid api key"}}`)

	rep := preflight.Run(context.Background(), providers.Factory{Lookup: noEnv}, providers.Config{
		Kind:    providers.KindOpenAI,
		Model:   "gpt-4o-mini",
		BaseURL: srv.URL,
		APIKey:  "sk-bad",
	})

	require.False(t, rep.Healthy())

	conn, ok := rep.Find(preflight.CheckConnectivity)
	require.True(t, ok)
	assert.True(t, conn.OK)

	end, ok := rep.Find(preflight.CheckEndpoint)
	require.True(t, ok)
	assert.True(t, end.OK)

	auth, ok := rep.Find(preflight.CheckAuthModel)
	require.True(t, ok)
	assert.False(t, auth.OK)
	assert.Contains(t, auth.Detail, "authentication")

	compat, ok := rep.Find(preflight.CheckCompatibility)
	require.True(t, ok)
	assert.False(t, compat.OK)

	assert.Contains(t, rep.Recommendation, "API key")
}

func TestRun_DeadEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	rep := preflight.Run(context.Background(), providers.Factory{Lookup: noEnv}, providers.Config{
		Kind:    providers.KindVLLM,
		Model:   "qwen",
		BaseURL: url,
	})

	assert.False(t, rep.Healthy())
	for _, c := range rep.Checks {
		assert.False(t, c.OK, c.Name)
	}

	conn, ok := rep.Find(preflight.CheckConnectivity)
	require.True(t, ok)
	assert.Contains(t, conn.Detail, "cannot reach")

	assert.Contains(t, rep.Recommendation, "cannot be reached")
}

func TestRun_MissingCredential(t *testing.T) {
	srv, posts := newAPIServer(t, http.StatusOK, completionBody)

	rep := preflight.Run(context.Background(), providers.Factory{Lookup: noEnv}, providers.Config{
		Kind:    providers.KindOpenAI,
		Model:   "gpt-4o-mini",
		BaseURL: srv.URL,
	})

	require.False(t, rep.Healthy())

	conn, ok := rep.Find(preflight.CheckConnectivity)
	require.True(t, ok)
	assert.True(t, conn.OK)

	auth, ok := rep.Find(preflight.CheckAuthModel)
	require.True(t, ok)
	assert.False(t, auth.OK)
	assert.Contains(t, auth.Detail, "missing credential")

	compat, ok := rep.Find(preflight.CheckCompatibility)
	require.True(t, ok)
	assert.False(t, compat.OK)
	assert.Contains(t, compat.Detail, "missing credential")

	// A credential failure is diagnosed without sending any completion.
	assert.Equal(t, int64(0), posts.Load())
	assert.Contains(t, rep.Recommendation, "API key")
}

func TestRun_UnknownKind(t *testing.T) {
	rep := preflight.Run(context.Background(), providers.Factory{Lookup: noEnv}, providers.Config{
		Kind:  "mystery",
		Model: "m",
	})

	assert.False(t, rep.Healthy())

	conn, ok := rep.Find(preflight.CheckConnectivity)
	require.True(t, ok)
	assert.False(t, conn.OK)

	auth, ok := rep.Find(preflight.CheckAuthModel)
	require.True(t, ok)
	assert.Contains(t, auth.Detail, "unknown kind")
}

func TestReport_Find(t *testing.T) {
	rep := &preflight.Report{Checks: []preflight.Check{{Name: "a", OK: true}}}

	c, ok := rep.Find("a")
	assert.True(t, ok)
	assert.True(t, c.OK)

	_, ok = rep.Find("b")
	assert.False(t, ok)
}
