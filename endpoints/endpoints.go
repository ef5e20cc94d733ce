package endpoints

import (
	"context"
)

// LogEvent records a structured log line on the platform side.
func (c *Client) LogEvent(ctx context.Context, message string, fields map[string]any) error {
	body := map[string]any{"message": message, "metadata": fields}
	return c.Post(ctx, "/api/v1/extensions/logs", body, nil)
}

// EmitMetric reports a named metric value. Unit defaults to "count".
func (c *Client) EmitMetric(ctx context.Context, name string, value float64, unit string) error {
	if unit == "" {
		unit = "count"
	}
	body := map[string]any{"name": name, "value": value, "unit": unit}
	return c.Post(ctx, "/api/v1/extensions/metrics", body, nil)
}

// Notify sends a notification to the workspace. Level defaults to "info".
func (c *Client) Notify(ctx context.Context, title, message, level string) error {
	if level == "" {
		level = "info"
	}
	body := map[string]any{"title": title, "body": message, "level": level}
	return c.Post(ctx, "/api/v1/extensions/notifications", body, nil)
}

// RateLimitStatus reports the caller's remaining platform API budget.
type RateLimitStatus struct {
	// Remaining is the number of calls left in the current window.
	Remaining int `json:"remaining"`

	// ResetIn is the number of seconds until the window resets.
	ResetIn float64 `json:"reset_in"`
}

// RateLimit queries the platform for the invocation's remaining API budget.
func (c *Client) RateLimit(ctx context.Context) (*RateLimitStatus, error) {
	var out RateLimitStatus
	if err := c.Get(ctx, "/api/v1/ext/rate_limit", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
