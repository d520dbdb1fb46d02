package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTokenLimit(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    int
		found   bool
	}{
		{
			name:    "bracketed range",
			message: "max_tokens must be in [1, 8192]",
			want:    8192,
			found:   true,
		},
		{
			name:    "bracketed range with spaces",
			message: "allowed values: [ 1 , 4096 ]",
			want:    4096,
			found:   true,
		},
		{
			name:    "bracketed range wins over earlier prose",
			message: "This model's maximum context length is 4097 tokens. Requested tokens must be in [1, 4096].",
			want:    4096,
			found:   true,
		},
		{
			name:    "between",
			message: "max_tokens must be between 1 and 2048",
			want:    2048,
			found:   true,
		},
		{
			name:    "maximum",
			message: "This model's maximum context length is 8192 tokens",
			want:    8192,
			found:   true,
		},
		{
			name:    "maximum case insensitive",
			message: "Maximum 4096",
			want:    4096,
			found:   true,
		},
		{
			name:    "max is",
			message: "the max for this model is 2048 tokens",
			want:    2048,
			found:   true,
		},
		{
			name:    "up to",
			message: "this endpoint supports up to 32768 output tokens",
			want:    32768,
			found:   true,
		},
		{
			name:    "trailing range",
			message: "the requested value is outside the allowed range 1024",
			want:    1024,
			found:   true,
		},
		{
			name:    "no number",
			message: "request invalid",
		},
		{
			name:    "number without a recognized shape",
			message: "you requested 9000 tokens",
		},
		{
			name:    "non-positive bound",
			message: "[0, 0]",
		},
		{
			name: "empty message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTokenLimit(tt.message)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
