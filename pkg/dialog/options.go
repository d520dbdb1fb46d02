package dialog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parleykit/parley/pkg/providers/provider"
	"github.com/parleykit/parley/pkg/schema"
)

// ErrBadOptions reports an invalid Options value. It is returned before any
// network activity and is never retried.
var ErrBadOptions = errors.New("dialog: invalid options")

// EncodingMode selects how a JSON schema is communicated to the provider.
type EncodingMode int

const (
	// EncodingAuto picks the provider's native schema mode when supported
	// and falls back to textual instructions otherwise.
	EncodingAuto EncodingMode = iota
	// EncodingText embeds the schema in the prompt and relies on
	// instructions alone.
	EncodingText
	// EncodingNativeSchema uses the provider's schema-constrained output
	// mode.
	EncodingNativeSchema
	// EncodingNativeFree uses the provider's generic JSON mode; the schema,
	// when present, still travels in the prompt text.
	EncodingNativeFree
)

// Options control a single ask.
type Options struct {
	// System seeds an optional system turn before the prompt.
	System string
	// MaxInteractions is the total number of exchanges allowed with the
	// provider, including retries after rejected responses. It must be at
	// least 1.
	MaxInteractions int
	// MaxWords and MaxChars bound text answers. Zero means unbounded;
	// negative values are rejected.
	MaxWords int
	MaxChars int
	// Schema constrains JSON answers. It may be a bare schema fragment or a
	// {name, description, schema} wrapper; wrappers are unwrapped one level
	// before reaching the provider.
	Schema map[string]any
	// Strict asks the provider to enforce the schema exactly.
	Strict bool
	// Encoding selects the schema transport for JSON answers.
	Encoding EncodingMode
	// Validate, when set, vets each parsed JSON answer. A returned error
	// becomes correction feedback for the next attempt.
	Validate func(map[string]any) error
	// TrimHistory compacts the conversation to its boundary turns before
	// each retry.
	TrimHistory bool
	// FullTrace attaches the final conversation to the result.
	FullTrace bool
	// Stream overrides the provider's streaming preference. Completion calls
	// are issued blocking either way; the flag is recorded for diagnostics.
	Stream *bool
}

func (o Options) validate() error {
	if o.MaxInteractions < 1 {
		return fmt.Errorf("%w: max interactions must be at least 1, got %d", ErrBadOptions, o.MaxInteractions)
	}
	if o.MaxWords < 0 {
		return fmt.Errorf("%w: max words must be positive, got %d", ErrBadOptions, o.MaxWords)
	}
	if o.MaxChars < 0 {
		return fmt.Errorf("%w: max characters must be positive, got %d", ErrBadOptions, o.MaxChars)
	}
	if o.Encoding == EncodingNativeSchema && o.Schema == nil {
		return fmt.Errorf("%w: native schema encoding requires a schema", ErrBadOptions)
	}
	return nil
}

// resolveEncoding maps EncodingAuto to a concrete mode based on the
// completer's capabilities.
func resolveEncoding(c provider.Completer, o Options) EncodingMode {
	if o.Encoding != EncodingAuto {
		return o.Encoding
	}

	sc, ok := c.(provider.SchemaCapable)
	if !ok || !sc.SupportsJSONSchema() {
		return EncodingText
	}

	if o.Schema != nil {
		return EncodingNativeSchema
	}
	return EncodingNativeFree
}

// jsonRequest shapes the provider request for a JSON ask under the given
// concrete encoding mode.
func jsonRequest(o Options, mode EncodingMode) provider.Request {
	switch mode {
	case EncodingNativeSchema:
		req := provider.Request{
			JSONMode: provider.JSONNativeSchema,
			Schema:   schema.ExtractOnly(o.Schema),
			Strict:   o.Strict,
		}
		if name, ok := o.Schema["name"].(string); ok {
			req.SchemaName = name
		}
		return req
	case EncodingNativeFree:
		return provider.Request{JSONMode: provider.JSONNativeFree}
	default:
		return provider.Request{JSONMode: provider.JSONTextual}
	}
}

// jsonInstructions returns the prompt suffix that tells the model how to
// answer in JSON under the given concrete encoding mode.
func jsonInstructions(o Options, mode EncodingMode) string {
	if mode == EncodingNativeSchema {
		return "Respond with a JSON object."
	}

	if o.Schema == nil {
		return "Respond only with a single JSON object, no surrounding text."
	}

	def, err := json.MarshalIndent(schema.ExtractOnly(o.Schema), "", "  ")
	if err != nil {
		return "Respond only with a single JSON object, no surrounding text."
	}

	return "Respond only with a single JSON object conforming to this JSON schema, no surrounding text:\n" + string(def)
}

// lengthInstructions returns the prompt suffix describing the configured
// length bounds, or an empty string when unbounded.
func lengthInstructions(o Options) string {
	switch {
	case o.MaxWords > 0 && o.MaxChars > 0:
		return fmt.Sprintf("Answer in at most %d words and %d characters.", o.MaxWords, o.MaxChars)
	case o.MaxWords > 0:
		return fmt.Sprintf("Answer in at most %d words.", o.MaxWords)
	case o.MaxChars > 0:
		return fmt.Sprintf("Answer in at most %d characters.", o.MaxChars)
	}
	return ""
}
