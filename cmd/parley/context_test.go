package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/pkg/ollama"
	"github.com/parleykit/parley/pkg/providers"
)

const testConfigYAML = `
providers:
  - name: local
    kind: ollama
    model: llama3.2
    base_url: http://gpu-box:11434
    probe: full
`

func testContext(configFlag, providerFlag, probeFlag string) *commandContext {
	return newCommandContext(&configFlag, &providerFlag, &probeFlag)
}

func TestCommandContext_ProviderConfig_ProbeOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("parley.yaml", []byte(testConfigYAML), 0o600))

	pcfg, err := testContext("", "", "skip").providerConfig()
	require.NoError(t, err)
	assert.Equal(t, providers.ProbeSkip, pcfg.Probe)
}

func TestCommandContext_ProviderConfig_BadProbeFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("parley.yaml", []byte(testConfigYAML), 0o600))

	_, err := testContext("", "", "sometimes").providerConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown probe mode")
}

func TestCommandContext_ProviderConfig_NoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := testContext("", "", "").providerConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configuration file")
}

func TestCommandContext_OllamaBaseURL(t *testing.T) {
	t.Chdir(t.TempDir())

	// Without a config file the built-in default applies.
	assert.Equal(t, ollama.DefaultBaseURL, testContext("", "", "").ollamaBaseURL())

	require.NoError(t, os.WriteFile("parley.yaml", []byte(testConfigYAML), 0o600))
	assert.Equal(t, "http://gpu-box:11434", testContext("", "", "").ollamaBaseURL())
}
