package dispatch

import (
	"os"
	"strings"
	"time"
)

// Config holds the configuration for an Engine instance.
type Config struct {
	// ExtensionID identifies the running extension to the platform.
	ExtensionID string

	// ExtensionVersion is the extension's own version string, stamped
	// onto telemetry records.
	ExtensionVersion string

	// WebhookSecret is the HMAC signing secret inbound requests are
	// verified against. Required.
	WebhookSecret string

	// BaseURL is the platform API base for outbound calls. Empty
	// disables the outbound client.
	BaseURL string

	// WorkspaceToken authenticates outbound platform calls.
	WorkspaceToken string

	// RequestTimeout bounds each outbound platform call.
	RequestTimeout time.Duration

	// RateLimit caps outbound platform calls per second per path group.
	// Zero means unlimited.
	RateLimit int

	// TelemetryURL is the remote telemetry sink. Empty disables the
	// remote sink; the feedback hook still runs.
	TelemetryURL string

	// TelemetryDisabled switches off all telemetry work.
	TelemetryDisabled bool

	// Settings is the configuration snapshot exposed to handlers.
	Settings map[string]any
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 15 * time.Second,
	}
}

// Environment variable names read by ConfigFromEnv. Per-secret values use
// the KIKET_SECRET_ prefix handled by the secrets package.
const (
	EnvExtensionID      = "KIKET_EXTENSION_ID"
	EnvExtensionVersion = "KIKET_EXTENSION_VERSION"
	EnvWebhookSecret    = "KIKET_WEBHOOK_SECRET"
	EnvBaseURL          = "KIKET_BASE_URL"
	EnvWorkspaceToken   = "KIKET_WORKSPACE_TOKEN"
	EnvTelemetryURL     = "KIKET_SDK_TELEMETRY_URL"
	EnvTelemetryOptOut  = "KIKET_SDK_TELEMETRY_OPTOUT"
)

// ConfigFromEnv returns DefaultConfig overlaid with a one-time snapshot of
// the process environment. Later environment changes are not observed.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ExtensionID = os.Getenv(EnvExtensionID)
	cfg.ExtensionVersion = os.Getenv(EnvExtensionVersion)
	cfg.WebhookSecret = os.Getenv(EnvWebhookSecret)
	cfg.BaseURL = os.Getenv(EnvBaseURL)
	cfg.WorkspaceToken = os.Getenv(EnvWorkspaceToken)
	cfg.TelemetryURL = os.Getenv(EnvTelemetryURL)
	cfg.TelemetryDisabled = isTruthy(os.Getenv(EnvTelemetryOptOut))
	return cfg
}

// isTruthy matches the opt-out convention: "1", "true", "yes" (any case).
func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
