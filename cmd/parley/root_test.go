package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCommand(t *testing.T) {
	root := newRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "ask")
	assert.Contains(t, names, "schema")
	assert.Contains(t, names, "models")
	assert.Contains(t, names, "doctor")
	assert.Contains(t, names, "init")

	for _, flag := range []string{"config", "env", "provider", "probe", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}
