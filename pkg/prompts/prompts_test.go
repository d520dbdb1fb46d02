package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFill(t *testing.T) {
	got := Fill("Hello {name}, welcome to {place}.", map[string]any{
		"name":  "Ada",
		"place": "the lab",
	})

	assert.Equal(t, "Hello Ada, welcome to the lab.", got)
}

func TestFill_RepeatedPlaceholder(t *testing.T) {
	got := Fill("{x} + {x} = {y}", map[string]any{"x": 2, "y": 4})

	assert.Equal(t, "2 + 2 = 4", got)
}

func TestFill_UnknownPlaceholderLeftVerbatim(t *testing.T) {
	got := Fill("Hello {name}, {unset} stays.", map[string]any{"name": "Ada"})

	assert.Equal(t, "Hello Ada, {unset} stays.", got)
}

func TestFill_NoVars(t *testing.T) {
	assert.Equal(t, "plain text", Fill("plain text", nil))
}

func TestFill_NonStringValues(t *testing.T) {
	got := Fill("{n} {f} {b}", map[string]any{"n": 7, "f": 1.5, "b": true})

	assert.Equal(t, "7 1.5 true", got)
}

func TestPlaceholders(t *testing.T) {
	names := Placeholders("{x} + {x} = {y}")

	assert.Equal(t, []string{"x", "y"}, names)
}

func TestPlaceholders_None(t *testing.T) {
	assert.Empty(t, Placeholders("no placeholders here"))
}

func TestMissing(t *testing.T) {
	missing := Missing("{a} {b} {c}", map[string]any{"b": 1})

	assert.Equal(t, []string{"a", "c"}, missing)
}
