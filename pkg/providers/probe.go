package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/parleykit/parley/pkg/dialog"
	"github.com/parleykit/parley/pkg/providers/provider"
)

// probeTimeout bounds every probe request. Probing is independent of the
// configured provider timeout; it must answer quickly or not at all.
const probeTimeout = 10 * time.Second

// ProbeMode selects how Create verifies a freshly built configuration.
type ProbeMode string

const (
	// ProbeFull sends a trivial prompt through the full ask path.
	ProbeFull ProbeMode = "full"
	// ProbeTransport sends one minimal completion request over raw HTTP.
	ProbeTransport ProbeMode = "transport"
	// ProbeSkip performs no network activity.
	ProbeSkip ProbeMode = "skip"
)

// ParseProbeMode maps a config string to a ProbeMode. The empty string means
// ProbeFull.
func ParseProbeMode(s string) (ProbeMode, error) {
	switch s {
	case "", "full":
		return ProbeFull, nil
	case "transport", "transport-only":
		return ProbeTransport, nil
	case "skip", "none":
		return ProbeSkip, nil
	}

	return "", fmt.Errorf("providers: unknown probe mode %q", s)
}

// Outcome reports what a probe observed. AdjustedMaxTokens is non-zero when
// the endpoint rejected the configured ceiling and advertised a smaller one
// that a single retry confirmed usable.
type Outcome struct {
	Mode              ProbeMode
	OK                bool
	Detail            string
	AdjustedMaxTokens int
}

// Probe verifies a configuration against its endpoint in the given mode.
// The config should already be resolved; kind defaults are applied here so
// the call also works on a bare config.
func Probe(ctx context.Context, cfg Config, mode ProbeMode) (Outcome, error) {
	spec, ok := kinds[cfg.Kind]
	if !ok {
		return Outcome{}, fmt.Errorf("%w %q", ErrUnknownKind, cfg.Kind)
	}

	cfg.Probe = mode

	return runProbe(ctx, applyDefaults(cfg, spec), spec), nil
}

// runProbe dispatches on the configured probe mode. Skip mode reports
// success without touching the network.
func runProbe(ctx context.Context, cfg Config, spec kindSpec) Outcome {
	switch cfg.Probe {
	case ProbeSkip:
		return Outcome{Mode: ProbeSkip, OK: true, Detail: "probe skipped"}
	case ProbeTransport:
		return transportProbe(ctx, cfg, spec)
	default:
		return fullProbe(ctx, cfg, spec)
	}
}

// transportProbe issues one minimal completion request over raw HTTP. A 400
// body naming the kind's token-limit field is parsed for a lower ceiling and
// retried exactly once at that ceiling; 401 and every other status fail
// without a retry.
func transportProbe(ctx context.Context, cfg Config, spec kindSpec) Outcome {
	out := Outcome{Mode: ProbeTransport}

	status, body, err := probeOnce(ctx, cfg, spec)
	if err != nil {
		out.Detail = fmt.Sprintf("endpoint unreachable: %v", err)
		return out
	}

	switch {
	case status >= 200 && status < 300:
		out.OK = true
		out.Detail = "endpoint accepted a minimal completion"
	case status == http.StatusBadRequest && strings.Contains(body, spec.tokenField):
		limit, ok := ParseTokenLimit(body)
		if !ok {
			out.Detail = fmt.Sprintf("endpoint rejected the request without a usable bound: %s", body)
			return out
		}

		status, _, err = probeOnce(ctx, cfg.WithMaxTokens(limit), spec)
		if err == nil && status >= 200 && status < 300 {
			out.OK = true
			out.AdjustedMaxTokens = limit
			out.Detail = fmt.Sprintf("endpoint accepted the request after lowering max tokens to %d", limit)
			return out
		}

		out.Detail = fmt.Sprintf("endpoint still rejected the request at max tokens %d", limit)
	case status == http.StatusUnauthorized:
		out.Detail = "authentication rejected (status 401)"
	default:
		out.Detail = fmt.Sprintf("unexpected status %d: %s", status, body)
	}

	return out
}

// probeOnce posts the kind's minimal completion body and flattens the result
// to a status code plus body. Transport errors (DNS, refused connections)
// come back as the error return.
func probeOnce(ctx context.Context, cfg Config, spec kindSpec) (int, string, error) {
	b := provider.NewBase(cfg.BaseURL, provider.Auth{Key: cfg.APIKey}, &http.Client{Timeout: probeTimeout})
	b.Headers = cfg.Headers

	err := b.PostJSON(ctx, spec.probePath, spec.probeBody(cfg), nil)
	if err == nil {
		return http.StatusOK, "", nil
	}

	var httpErr *provider.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status, httpErr.Body, nil
	}

	var rateErr *provider.RateLimitError
	if errors.As(err, &rateErr) {
		return http.StatusTooManyRequests, rateErr.Body, nil
	}

	return 0, "", err
}

// fullProbe sends a trivial prompt through the regular ask path. A failure
// whose message names the kind's token-limit field is parsed and retried
// exactly once with a completer rebuilt at the lower ceiling.
func fullProbe(ctx context.Context, cfg Config, spec kindSpec) Outcome {
	out := Outcome{Mode: ProbeFull}

	err := probeAsk(ctx, cfg, spec)
	if err == nil {
		out.OK = true
		out.Detail = "endpoint answered a trivial prompt"
		return out
	}

	if strings.Contains(err.Error(), spec.tokenField) {
		if limit, ok := ParseTokenLimit(err.Error()); ok {
			if retryErr := probeAsk(ctx, cfg.WithMaxTokens(limit), spec); retryErr == nil {
				out.OK = true
				out.AdjustedMaxTokens = limit
				out.Detail = fmt.Sprintf("endpoint answered after lowering max tokens to %d", limit)
				return out
			}

			out.Detail = fmt.Sprintf("endpoint still failed at max tokens %d", limit)
			return out
		}
	}

	out.Detail = fmt.Sprintf("trivial prompt failed: %v", err)
	return out
}

// probeAsk runs a single-interaction ask against a completer built with the
// probe timeout in place of the configured one.
func probeAsk(ctx context.Context, cfg Config, spec kindSpec) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cfg.Timeout = probeTimeout
	_, err := dialog.AskText(ctx, spec.build(cfg), "Reply with the single word: ok", dialog.Options{MaxInteractions: 1})

	return err
}
