// Package endpoints is the outbound HTTP client for calling back into the
// platform from a running extension.
//
// Calls are authenticated with the per-invocation runtime token plus the
// workspace token; a client is therefore built per invocation and handed to
// the handler through its invocation context.
package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kiket-dev/dispatch/ratelimit"
	"github.com/kiket-dev/dispatch/secrets"
)

// Outbound header names.
const (
	HeaderRuntimeToken = "X-Kiket-Runtime-Token"
	HeaderEventVersion = "X-Kiket-Event-Version"
)

// ErrRequestFailed is returned when an outbound platform call fails,
// wrapped with status or transport detail.
var ErrRequestFailed = errors.New("endpoints: request failed")

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 15 * time.Second

// Config configures an outbound Client.
type Config struct {
	// BaseURL is the platform API base (e.g. "https://kiket.dev").
	BaseURL string

	// WorkspaceToken authenticates the extension's workspace, sent as a
	// bearer Authorization header when present.
	WorkspaceToken string

	// RuntimeToken is the per-invocation credential; all calls carry it.
	RuntimeToken string

	// ExtensionID scopes secret management calls.
	ExtensionID string

	// EventVersion, when set, is echoed on every call so the platform can
	// attribute traffic to a handler generation.
	EventVersion string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// RateLimit caps outbound calls per second per path group.
	// Zero means unlimited.
	RateLimit int

	// Limiter is the shared token bucket. Nil disables throttling.
	Limiter *ratelimit.Limiter

	// HTTPClient overrides the transport, used by tests. Nil builds one
	// from Timeout.
	HTTPClient *http.Client
}

// Client calls platform extension endpoints.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Secrets returns the secret manager bound to this client's extension.
func (c *Client) Secrets() *secrets.Manager {
	return secrets.NewManager(c, c.cfg.ExtensionID)
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.request(ctx, http.MethodGet, path, params, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.request(ctx, http.MethodPost, path, nil, body, out)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any, out any) error {
	return c.request(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.request(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) request(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx, pathGroup(path), c.cfg.RateLimit); err != nil {
			return fmt.Errorf("%w: rate limit wait: %v", ErrRequestFailed, err)
		}
	}

	target := c.cfg.BaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("endpoints: marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("endpoints: create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.WorkspaceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.WorkspaceToken)
	}
	if c.cfg.RuntimeToken != "" {
		req.Header.Set(HeaderRuntimeToken, c.cfg.RuntimeToken)
	}
	if c.cfg.EventVersion != "" {
		req.Header.Set(HeaderEventVersion, c.cfg.EventVersion)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: platform returned %d", ErrRequestFailed, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("endpoints: decode response: %w", err)
	}
	return nil
}

// pathGroup reduces an API path to its throttling key: the first two
// segments after /api/v1, which keeps custom-data traffic from starving
// unrelated endpoints.
func pathGroup(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/v1/")
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return trimmed
}
