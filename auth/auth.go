// Package auth extracts the per-invocation runtime token that the platform
// embeds in every webhook payload.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PayloadField is the reserved payload field carrying the runtime token.
const PayloadField = "auth"

// Sentinel errors returned during runtime token extraction.
var (
	// ErrMissingRuntimeToken is returned when the payload lacks the reserved
	// auth field or the token string inside it.
	ErrMissingRuntimeToken = errors.New("auth: payload is missing the runtime token")

	// ErrTokenExpired is returned when the runtime token's expiry is in the past.
	ErrTokenExpired = errors.New("auth: runtime token is expired")
)

// Info holds the authentication material for a single invocation.
// It lives for exactly one handler call and is never persisted.
type Info struct {
	// Token is the opaque runtime token string used for outbound calls.
	Token string

	// TokenType is the token's declared type (e.g. "Bearer").
	TokenType string

	// ExpiresAt is the token expiry, when the platform supplied one.
	ExpiresAt *time.Time

	// Scopes is the ordered set of scope strings granted to this token.
	Scopes []string
}

// Expired reports whether the token's expiry, when present, is before now.
func (i *Info) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(now)
}

// FromPayload reads the reserved auth field from a decoded payload and
// builds the invocation Info. A payload without the field, or with a blank
// token, yields ErrMissingRuntimeToken.
func FromPayload(payload map[string]any) (*Info, error) {
	raw, ok := payload[PayloadField].(map[string]any)
	if !ok {
		return nil, ErrMissingRuntimeToken
	}

	token := strings.TrimSpace(stringField(raw, "token"))
	if token == "" {
		return nil, ErrMissingRuntimeToken
	}

	info := &Info{
		Token:     token,
		TokenType: stringField(raw, "token_type"),
		Scopes:    stringSlice(raw["scopes"]),
	}

	if v := stringField(raw, "expires_at"); v != "" {
		ts, err := parseTimestamp(v)
		if err != nil {
			return nil, fmt.Errorf("auth: invalid expires_at: %w", err)
		}
		info.ExpiresAt = &ts
	}

	return info, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}
