// Package secrets resolves named secrets for handler invocations and manages
// stored extension secrets through the platform API.
//
// The hot dispatch path uses only the Resolver's two-tier fallback; the
// Manager exists for out-of-core tooling such as rotation commands.
package secrets

import (
	"regexp"
	"strings"
)

// EnvPrefix is the canonical prefix for environment-provided secret values.
const EnvPrefix = "KIKET_SECRET_"

// PayloadField is the reserved payload field carrying per-organization
// secrets. The engine consumes it before the handler sees the payload.
const PayloadField = "secrets"

var envNameSanitizer = regexp.MustCompile(`[^A-Z0-9]+`)

// EnvName converts a secret key into its canonical environment variable name.
// "slack-bot.token" becomes "KIKET_SECRET_SLACK_BOT_TOKEN".
func EnvName(key string) string {
	normalized := envNameSanitizer.ReplaceAllString(strings.ToUpper(key), "_")
	normalized = strings.Trim(normalized, "_")
	return EnvPrefix + normalized
}

// LookupFunc reports a value from the process environment.
type LookupFunc func(key string) (string, bool)

// Resolver looks up a named secret through an ordered fallback chain:
// the payload's embedded per-organization secrets map first, then the
// process environment (exact key, then the canonical EnvName form).
type Resolver struct {
	payload map[string]string
	lookup  LookupFunc
}

// NewResolver builds a resolver bound to one invocation's payload secrets.
// A nil lookup disables the environment tier.
func NewResolver(payloadSecrets map[string]string, lookup LookupFunc) *Resolver {
	return &Resolver{payload: payloadSecrets, lookup: lookup}
}

// Get resolves a secret by key. Payload-tier values win over the
// environment tier even when both are set.
func (r *Resolver) Get(key string) (string, bool) {
	if v, ok := r.payload[key]; ok && v != "" {
		return v, true
	}
	if r.lookup == nil {
		return "", false
	}
	if v, ok := r.lookup(key); ok && v != "" {
		return v, true
	}
	if v, ok := r.lookup(EnvName(key)); ok && v != "" {
		return v, true
	}
	return "", false
}

// PayloadSecrets extracts the per-organization secrets map the platform
// bundles into a webhook payload under the reserved PayloadField.
func PayloadSecrets(payload map[string]any) map[string]string {
	raw, ok := payload[PayloadField].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
