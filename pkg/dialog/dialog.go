// Package dialog implements the bounded ask loop: a prompt is sent to a
// provider and the reply is checked against length bounds or JSON structure;
// rejected replies produce correction feedback and a retry, until a valid
// response arrives or the interaction budget runs out. Running out is a
// normal outcome reported on the result, not an error.
package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/parleykit/parley/pkg/convo"
	"github.com/parleykit/parley/pkg/providers/provider"
	"github.com/parleykit/parley/pkg/providers/usage"
)

// rateLimitDelay is the wait before retrying a rate-limited call whose
// response carried no Retry-After hint.
const rateLimitDelay = 2 * time.Second

// sleepFunc is swapped in tests for deterministic timing.
var sleepFunc = sleepContext

// Result is the outcome of an ask. Answered reports whether a valid response
// arrived within the interaction budget; when it is false the remaining
// fields describe the state at exhaustion.
type Result struct {
	Answered     bool
	Text         string            // Raw text of the accepted reply.
	Object       map[string]any    // Parsed object for JSON asks.
	Interactions int               // Exchanges consumed, including rejected ones.
	Tokens       usage.TokenCount  // Aggregate usage across all attempts.
	Trace        *convo.Transcript // Final conversation when Options.FullTrace is set.
}

// AskText sends a prompt and returns the first reply that satisfies the
// configured word and character bounds. Out-of-bounds replies are fed back
// to the model as correction feedback until the interaction budget runs out.
func AskText(ctx context.Context, c provider.Completer, prompt string, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	userPrompt := prompt
	if instr := lengthInstructions(opts); instr != "" {
		userPrompt = prompt + "\n\n" + instr
	}

	res := &Result{}
	check := func(text string) (string, bool) {
		if feedback := lengthFeedback(text, opts); feedback != "" {
			return feedback, false
		}
		res.Text = text
		return "", true
	}

	return run(ctx, c, userPrompt, opts, provider.Request{}, res, check)
}

// AskJSON sends a prompt and returns the first reply that parses as a JSON
// object and passes the optional validator. Parse failures and validator
// rejections are fed back to the model as correction feedback until the
// interaction budget runs out.
func AskJSON(ctx context.Context, c provider.Completer, prompt string, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	mode := resolveEncoding(c, opts)
	userPrompt := prompt + "\n\n" + jsonInstructions(opts, mode)

	res := &Result{}
	check := func(text string) (string, bool) {
		obj, err := parseJSONObject(text)
		if err != nil {
			return fmt.Sprintf("Your previous reply was not a valid JSON object (%v). Reply with a single JSON object only.", err), false
		}

		if opts.Validate != nil {
			if err := opts.Validate(obj); err != nil {
				return fmt.Sprintf("The JSON was rejected: %v. Reply with a corrected JSON object.", err), false
			}
		}

		res.Text = text
		res.Object = obj
		return "", true
	}

	return run(ctx, c, userPrompt, opts, jsonRequest(opts, mode), res, check)
}

// run drives the exchange loop shared by text and JSON asks. check returns
// correction feedback for a rejected reply, or ok for an accepted one.
func run(ctx context.Context, c provider.Completer, userPrompt string, opts Options, req provider.Request, res *Result, check func(string) (string, bool)) (*Result, error) {
	t := convo.New()
	if opts.System != "" {
		t.Append(convo.NewMessage(convo.System, opts.System))
	}
	t.Append(convo.NewMessage(convo.User, userPrompt))

	if opts.Stream != nil && *opts.Stream {
		slog.Debug("streaming requested; completion calls are issued blocking")
	}

	for attempt := 1; attempt <= opts.MaxInteractions; attempt++ {
		slog.Debug("sending prompt", "attempt", attempt, "estimated_tokens", t.EstimateTokens())

		reply, err := c.Complete(ctx, t, req)
		if err != nil {
			var rle *provider.RateLimitError
			if errors.As(err, &rle) && attempt < opts.MaxInteractions {
				res.Interactions = attempt
				delay := rle.RetryAfter
				if delay <= 0 {
					delay = rateLimitDelay
				}
				slog.Debug("rate limited, waiting before retry", "attempt", attempt, "delay", delay)
				if serr := sleepFunc(ctx, delay); serr != nil {
					return nil, fmt.Errorf("dialog: %w", serr)
				}
				continue
			}
			return nil, fmt.Errorf("dialog: %w", err)
		}

		res.Interactions = attempt
		res.Tokens = res.Tokens.Add(reply.Usage)
		t.Append(reply.Message)

		feedback, ok := check(reply.Message.Text)
		if ok {
			res.Answered = true
			break
		}

		slog.Debug("response rejected", "attempt", attempt, "feedback", feedback)
		t.Append(convo.NewMessage(convo.User, feedback))

		if opts.TrimHistory {
			t = t.TrimForRetry()
		}
	}

	if opts.FullTrace {
		res.Trace = t
	}
	return res, nil
}

// lengthFeedback describes how a reply violates the configured bounds, or
// returns an empty string when it fits.
func lengthFeedback(text string, opts Options) string {
	if opts.MaxWords > 0 {
		if words := len(strings.Fields(text)); words > opts.MaxWords {
			return fmt.Sprintf("Your previous answer used %d words but the limit is %d. Answer again in at most %d words.", words, opts.MaxWords, opts.MaxWords)
		}
	}

	if opts.MaxChars > 0 {
		if chars := utf8.RuneCountInString(text); chars > opts.MaxChars {
			return fmt.Sprintf("Your previous answer used %d characters but the limit is %d. Answer again in at most %d characters.", chars, opts.MaxChars, opts.MaxChars)
		}
	}

	return ""
}

// parseJSONObject extracts a JSON object from a reply, tolerating markdown
// fences and surrounding prose.
func parseJSONObject(text string) (map[string]any, error) {
	cleaned := cleanJSON(text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// cleanJSON strips markdown code fences and trims to the outermost JSON
// object so fenced or chatty replies still parse.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}

	return strings.TrimSpace(s)
}

// sleepContext waits for the duration or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
