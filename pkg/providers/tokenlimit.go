package providers

import (
	"regexp"
	"strconv"
)

// tokenLimitPatterns are tried in order against a provider error message.
// Specific shapes come first so a generic trailing-number pattern cannot
// misfire on a message that also carries a precise bound.
var tokenLimitPatterns = []*regexp.Regexp{
	// "valid values are in [1, 8192]" -> upper bound of the bracketed range
	regexp.MustCompile(`\[\s*\d+\s*,\s*(\d+)\s*\]`),
	// "must be between 1 and 4096"
	regexp.MustCompile(`(?i)between\s+\d+\s+and\s+(\d+)`),
	// "maximum context length is 8192 tokens"
	regexp.MustCompile(`(?i)maximum\D*(\d+)`),
	// "max output tokens for this model is 2048"
	regexp.MustCompile(`(?i)max\D*is\D*(\d+)`),
	// "supports up to 16384 completion tokens"
	regexp.MustCompile(`(?i)up\s+to\s+(\d+)`),
	// "outside the allowed range 1024" at the end of the message
	regexp.MustCompile(`(?i)range\D*(\d+)\D*$`),
}

// ParseTokenLimit extracts a token ceiling from a provider error message.
// Patterns are applied in order and the first positive capture wins. The
// second return is false when no pattern yields a positive integer; an
// unrecognized message is a normal outcome, not an error.
func ParseTokenLimit(message string) (int, bool) {
	for _, re := range tokenLimitPatterns {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}

		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}

		return n, true
	}

	return 0, false
}
