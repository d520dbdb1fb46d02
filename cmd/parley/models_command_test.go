package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/parleykit/parley/pkg/ollama"
)

func TestModelTable(t *testing.T) {
	models := []ollama.Model{
		{
			Name:       "llama3.2:latest",
			Digest:     "a80c4f17acd55265feec403c7aef86be0c25983ab279d83f3bcd3abbcb5b8b72",
			Size:       2_019_393_189,
			ModifiedAt: time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			Name:       "qwen2.5:7b",
			Digest:     "845dbda0ea48ed749caafd9e6037047aa19acfcfd82e704d7ca97d631a0b697e",
			Size:       4_700_000_000,
			ModifiedAt: time.Date(2026, 7, 15, 8, 0, 0, 0, time.UTC),
		},
	}

	out := modelTable(models)
	assert.Contains(t, out, "llama3.2:latest")
	assert.Contains(t, out, "qwen2.5:7b")
	assert.Contains(t, out, "2.0 GB")
	assert.Contains(t, out, "2026-08-01 10:30")
	// Digests are truncated for display.
	assert.NotContains(t, out, "a80c4f17acd55265feec403c7aef86be0c25983ab279d83f3bcd3abbcb5b8b72")
	assert.Contains(t, out, "a80c4f17acd55")
}

func TestPullProgress(t *testing.T) {
	var buf bytes.Buffer
	progress := pullProgress(&buf)

	progress("pulling manifest", 0, 0)
	progress("downloading layer", 10, 100)
	progress("downloading layer", 100, 100)
	progress("verifying sha256 digest", 0, 0)

	out := buf.String()
	assert.Contains(t, out, "pulling manifest")
	assert.Contains(t, out, "verifying sha256 digest")
}
