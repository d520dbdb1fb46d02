// Package preflight diagnoses a provider configuration layer by layer:
// network reachability, HTTP endpoint, credentials and model, and the full
// ask path. Each layer is checked independently so a report shows where the
// stack breaks, not just that it does.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/parleykit/parley/pkg/providers"
)

// checkTimeout bounds each individual check.
const checkTimeout = 10 * time.Second

// Check names, in the order Run executes them.
const (
	CheckConnectivity  = "raw-connectivity"
	CheckEndpoint      = "endpoint"
	CheckAuthModel     = "auth-model"
	CheckCompatibility = "compatibility"
)

var endpointClient = &http.Client{Timeout: checkTimeout}

// Check is the outcome of one diagnostic layer.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Report is the outcome of a full diagnostic run.
type Report struct {
	Checks         []Check
	Recommendation string
}

// Healthy reports whether every check passed.
func (r *Report) Healthy() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Find returns the named check and whether it exists in the report.
func (r *Report) Find(name string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

// Run executes the four diagnostic checks in order. Later checks still run
// when earlier ones fail; each failure is scoped to its own layer and the
// recommendation points at the first one.
func Run(ctx context.Context, f providers.Factory, cfg providers.Config) *Report {
	rcfg, resolveErr := f.Resolve(cfg)

	rep := &Report{}
	rep.Checks = append(rep.Checks,
		checkConnectivity(rcfg.BaseURL),
		checkEndpoint(ctx, rcfg.BaseURL),
		checkProbe(ctx, CheckAuthModel, rcfg, providers.ProbeTransport, resolveErr),
		checkProbe(ctx, CheckCompatibility, rcfg, providers.ProbeFull, resolveErr),
	)
	rep.Recommendation = recommend(rep, rcfg)

	return rep
}

// checkConnectivity opens a plain TCP connection to the endpoint host,
// separating network problems from HTTP and API ones.
func checkConnectivity(baseURL string) Check {
	c := Check{Name: CheckConnectivity}

	addr, err := dialAddress(baseURL)
	if err != nil {
		c.Detail = err.Error()
		return c
	}

	conn, err := net.DialTimeout("tcp", addr, checkTimeout)
	if err != nil {
		c.Detail = fmt.Sprintf("cannot reach %s: %v", addr, err)
		return c
	}
	_ = conn.Close()

	c.OK = true
	c.Detail = fmt.Sprintf("reached %s", addr)

	return c
}

// checkEndpoint performs a bare GET against the API base. Any HTTP status
// counts as reachable; correctness is the later checks' concern.
func checkEndpoint(ctx context.Context, baseURL string) Check {
	c := Check{Name: CheckEndpoint}

	if baseURL == "" {
		c.Detail = "no endpoint URL configured"
		return c
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		c.Detail = fmt.Sprintf("invalid endpoint URL: %v", err)
		return c
	}

	resp, err := endpointClient.Do(req)
	if err != nil {
		c.Detail = fmt.Sprintf("no HTTP response: %v", err)
		return c
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	c.OK = true
	c.Detail = fmt.Sprintf("HTTP %d from %s", resp.StatusCode, baseURL)

	return c
}

// checkProbe runs one provider probe as a diagnostic check. A resolve error
// (missing credential, bad kind) fails the check without touching the wire.
func checkProbe(ctx context.Context, name string, cfg providers.Config, mode providers.ProbeMode, resolveErr error) Check {
	c := Check{Name: name}

	if resolveErr != nil {
		c.Detail = resolveErr.Error()
		return c
	}

	out, err := providers.Probe(ctx, cfg, mode)
	if err != nil {
		c.Detail = err.Error()
		return c
	}

	c.OK = out.OK
	c.Detail = out.Detail

	return c
}

func dialAddress(baseURL string) (string, error) {
	if baseURL == "" {
		return "", errors.New("no endpoint URL configured")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint URL: %w", err)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("endpoint URL %q has no host", baseURL)
	}

	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	return net.JoinHostPort(host, port), nil
}

// recommend derives a next step from the first failing layer.
func recommend(rep *Report, cfg providers.Config) string {
	for _, c := range rep.Checks {
		if c.OK {
			continue
		}

		switch c.Name {
		case CheckConnectivity:
			return fmt.Sprintf("The endpoint host cannot be reached. Check your network connection and that %q points at a running server.", cfg.BaseURL)
		case CheckEndpoint:
			return "The host is reachable but does not answer HTTP. Check the endpoint URL scheme, port and any proxy in between."
		case CheckAuthModel:
			return "The endpoint answers but rejected the test completion. Check the API key and the model name."
		case CheckCompatibility:
			return "The endpoint accepts raw requests but the ask path failed. The endpoint may not be fully compatible with its configured kind."
		}
	}

	return "All checks passed. The provider is ready to use."
}
