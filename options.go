package dispatch

import (
	"log/slog"
	"time"

	"github.com/kiket-dev/dispatch/observability"
	"github.com/kiket-dev/dispatch/secrets"
	"github.com/kiket-dev/dispatch/store"
	"github.com/kiket-dev/dispatch/telemetry"
)

// Option configures an Engine instance.
type Option func(*Engine) error

// WithConfig replaces the entire configuration. Options applied after it
// override individual fields.
func WithConfig(cfg Config) Option {
	return func(e *Engine) error {
		e.config = cfg
		return nil
	}
}

// WithLogger sets the structured logger for the Engine instance.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithWebhookSecret sets the HMAC signing secret inbound requests are
// verified against.
func WithWebhookSecret(secret string) Option {
	return func(e *Engine) error {
		e.config.WebhookSecret = secret
		return nil
	}
}

// WithExtension identifies the running extension to the platform and on
// telemetry records.
func WithExtension(id, version string) Option {
	return func(e *Engine) error {
		e.config.ExtensionID = id
		e.config.ExtensionVersion = version
		return nil
	}
}

// WithBaseURL sets the platform API base for outbound calls.
func WithBaseURL(url string) Option {
	return func(e *Engine) error {
		e.config.BaseURL = url
		return nil
	}
}

// WithWorkspaceToken sets the workspace credential for outbound calls.
func WithWorkspaceToken(token string) Option {
	return func(e *Engine) error {
		e.config.WorkspaceToken = token
		return nil
	}
}

// WithRequestTimeout bounds each outbound platform call.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		e.config.RequestTimeout = d
		return nil
	}
}

// WithRateLimit caps outbound platform calls per second per path group.
func WithRateLimit(n int) Option {
	return func(e *Engine) error {
		e.config.RateLimit = n
		return nil
	}
}

// WithSettings sets the configuration snapshot exposed to handlers.
func WithSettings(settings map[string]any) Option {
	return func(e *Engine) error {
		e.config.Settings = settings
		return nil
	}
}

// WithTelemetryURL sets the remote telemetry sink endpoint.
func WithTelemetryURL(url string) Option {
	return func(e *Engine) error {
		e.config.TelemetryURL = url
		return nil
	}
}

// WithTelemetryHook sets the local feedback sink called with each
// telemetry record.
func WithTelemetryHook(hook telemetry.FeedbackHook) Option {
	return func(e *Engine) error {
		e.hook = hook
		return nil
	}
}

// WithTelemetryDisabled switches off all telemetry work.
func WithTelemetryDisabled() Option {
	return func(e *Engine) error {
		e.config.TelemetryDisabled = true
		return nil
	}
}

// WithStore sets the optional invocation audit log backend.
func WithStore(s store.Store) Option {
	return func(e *Engine) error {
		e.store = s
		return nil
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) error {
		e.metrics = m
		return nil
	}
}

// WithTracer sets the invocation span tracer.
func WithTracer(t *observability.Tracer) Option {
	return func(e *Engine) error {
		e.tracer = t
		return nil
	}
}

// WithEnvLookup overrides the environment tier of secret resolution,
// used by tests.
func WithEnvLookup(lookup secrets.LookupFunc) Option {
	return func(e *Engine) error {
		e.envLookup = lookup
		return nil
	}
}
