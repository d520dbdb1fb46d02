package preflight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialAddress(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr bool
	}{
		{name: "https default port", baseURL: "https://api.openai.com", want: "api.openai.com:443"},
		{name: "http default port", baseURL: "http://localhost", want: "localhost:80"},
		{name: "explicit port kept", baseURL: "http://localhost:11434", want: "localhost:11434"},
		{name: "path ignored", baseURL: "https://openrouter.ai/api", want: "openrouter.ai:443"},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "no host", baseURL: "http:///v1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dialAddress(tt.baseURL)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
