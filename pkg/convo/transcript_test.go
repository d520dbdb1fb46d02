package convo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tr := New(
		NewMessage(User, "hello"),
		NewMessage(Assistant, "hi"),
	)

	assert.Equal(t, 2, tr.Len())
}

func TestTranscript_ZeroValue(t *testing.T) {
	var tr Transcript

	assert.Equal(t, 0, tr.Len())

	_, ok := tr.Last()
	assert.False(t, ok)
	assert.Empty(t, tr.Messages())
}

func TestTranscript_Append(t *testing.T) {
	tr := New()
	tr.Append(NewMessage(User, "one"))
	tr.Append(
		NewMessage(Assistant, "two"),
		NewMessage(User, "three"),
	)

	assert.Equal(t, 3, tr.Len())
}

func TestTranscript_At_Panics(t *testing.T) {
	tr := New()
	assert.Panics(t, func() { tr.At(0) })
}

func TestTranscript_Last(t *testing.T) {
	tr := New(
		NewMessage(User, "first"),
		NewMessage(Assistant, "second"),
	)

	m, ok := tr.Last()
	assert.True(t, ok)
	assert.Equal(t, "second", m.Text)
}

func TestTranscript_Messages_Copy(t *testing.T) {
	tr := New(NewMessage(User, "hello"))

	msgs := tr.Messages()
	msgs[0].Text = "mutated"

	assert.Equal(t, "hello", tr.At(0).Text)
}

func TestTranscript_SystemPrompt(t *testing.T) {
	tr := New(
		NewMessage(System, "be brief"),
		NewMessage(User, "hello"),
	)

	assert.Equal(t, "be brief", tr.SystemPrompt())

	empty := New(NewMessage(User, "hello"))
	assert.Equal(t, "", empty.SystemPrompt())
}

func TestTranscript_FirstUser(t *testing.T) {
	tr := New(
		NewMessage(System, "be brief"),
		NewMessage(User, "first"),
		NewMessage(Assistant, "reply"),
		NewMessage(User, "second"),
	)

	m, ok := tr.FirstUser()
	assert.True(t, ok)
	assert.Equal(t, "first", m.Text)
}

func TestTranscript_LastAssistant(t *testing.T) {
	tr := New(
		NewMessage(User, "first"),
		NewMessage(Assistant, "one"),
		NewMessage(User, "second"),
		NewMessage(Assistant, "two"),
		NewMessage(User, "third"),
	)

	m, ok := tr.LastAssistant()
	assert.True(t, ok)
	assert.Equal(t, "two", m.Text)
}

func TestTranscript_TrimForRetry(t *testing.T) {
	tr := New(
		NewMessage(System, "be brief"),
		NewMessage(User, "first question"),
		NewMessage(Assistant, "too long answer"),
		NewMessage(User, "shorten it"),
		NewMessage(Assistant, "still too long"),
		NewMessage(User, "shorter"),
	)

	trimmed := tr.TrimForRetry()

	want := []Message{
		{Role: System, Text: "be brief"},
		{Role: User, Text: "first question"},
		{Role: Assistant, Text: "still too long"},
		{Role: User, Text: "shorter"},
	}
	assert.Equal(t, want, trimmed.Messages())

	// The original conversation is untouched.
	assert.Equal(t, 6, tr.Len())
}

func TestTranscript_TrimForRetry_SingleUserTurn(t *testing.T) {
	tr := New(
		NewMessage(System, "be brief"),
		NewMessage(User, "only question"),
		NewMessage(Assistant, "answer"),
	)

	trimmed := tr.TrimForRetry()

	// The first and most recent user turn are the same message; it must not
	// be duplicated.
	assert.Equal(t, 3, trimmed.Len())
	assert.Equal(t, "only question", trimmed.At(1).Text)
}

func TestTranscript_TrimForRetry_Empty(t *testing.T) {
	var tr Transcript

	trimmed := tr.TrimForRetry()
	assert.Equal(t, 0, trimmed.Len())
}

func TestTranscript_EstimateTokens(t *testing.T) {
	tr := New(NewMessage(User, "abcd"))

	// 4 chars -> 1 token, plus per-message overhead.
	assert.Equal(t, 5, tr.EstimateTokens())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, System.Valid())
	assert.True(t, User.Valid())
	assert.True(t, Assistant.Valid())
	assert.False(t, Role("tool").Valid())
	assert.False(t, Role("").Valid())
}
