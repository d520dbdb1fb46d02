package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"topic=go", "tone=dry humor", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"topic": "go", "tone": "dry humor", "empty": ""}, vars)
}

func TestParseVars_Empty(t *testing.T) {
	vars, err := parseVars(nil)
	require.NoError(t, err)
	assert.Nil(t, vars)
}

func TestParseVars_Invalid(t *testing.T) {
	_, err := parseVars([]string{"no-equals"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key=value")

	_, err = parseVars([]string{"=value"})
	assert.Error(t, err)
}

func TestFmtSize(t *testing.T) {
	assert.Equal(t, "512 B", fmtSize(512))
	assert.Equal(t, "1.5 kB", fmtSize(1_500))
	assert.Equal(t, "2.3 MB", fmtSize(2_300_000))
	assert.Equal(t, "4.7 GB", fmtSize(4_700_000_000))
}

func TestRequireValue(t *testing.T) {
	assert.NoError(t, requireValue("ok"))
	assert.Error(t, requireValue(""))
	assert.Error(t, requireValue("   "))
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"NAME", "SIZE"}, [][]string{{"llama3.2", "2.0 GB"}}, 2)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "llama3.2")
	assert.Contains(t, out, "2.0 GB")
}
