package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/pkg/convo"
	"github.com/parleykit/parley/pkg/dialog"
)

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    dialog.EncodingMode
		wantErr bool
	}{
		{in: "", want: dialog.EncodingAuto},
		{in: "auto", want: dialog.EncodingAuto},
		{in: "text", want: dialog.EncodingText},
		{in: "schema", want: dialog.EncodingNativeSchema},
		{in: "native-schema", want: dialog.EncodingNativeSchema},
		{in: "json", want: dialog.EncodingNativeFree},
		{in: "JSON", want: dialog.EncodingNativeFree},
		{in: "sideways", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseEncoding(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}

		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPrintTrace(t *testing.T) {
	var buf bytes.Buffer

	printTrace(&buf, &dialog.Result{})
	assert.Empty(t, buf.String())

	tr := convo.New(
		convo.NewMessage(convo.User, "hi"),
		convo.NewMessage(convo.Assistant, "hello"),
	)
	printTrace(&buf, &dialog.Result{Trace: tr})
	assert.Contains(t, buf.String(), "user: hi")
	assert.Contains(t, buf.String(), "assistant: hello")
}
