package auth_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kiket-dev/dispatch/auth"
)

func TestFromPayloadComplete(t *testing.T) {
	payload := map[string]any{
		"auth": map[string]any{
			"token":      "rt_abc123",
			"token_type": "Bearer",
			"expires_at": "2026-03-01T12:00:00Z",
			"scopes":     []any{"issues:read", "issues:write"},
		},
	}

	info, err := auth.FromPayload(payload)
	if err != nil {
		t.Fatal(err)
	}

	if info.Token != "rt_abc123" {
		t.Errorf("Token = %q", info.Token)
	}
	if info.TokenType != "Bearer" {
		t.Errorf("TokenType = %q", info.TokenType)
	}
	if !reflect.DeepEqual(info.Scopes, []string{"issues:read", "issues:write"}) {
		t.Errorf("Scopes = %v", info.Scopes)
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if info.ExpiresAt == nil || !info.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", info.ExpiresAt, want)
	}
}

func TestFromPayloadMissingAuthField(t *testing.T) {
	_, err := auth.FromPayload(map[string]any{"issue_id": "iss_1"})
	if !errors.Is(err, auth.ErrMissingRuntimeToken) {
		t.Errorf("expected ErrMissingRuntimeToken, got %v", err)
	}
}

func TestFromPayloadBlankToken(t *testing.T) {
	payload := map[string]any{
		"auth": map[string]any{"token": "   "},
	}
	_, err := auth.FromPayload(payload)
	if !errors.Is(err, auth.ErrMissingRuntimeToken) {
		t.Errorf("expected ErrMissingRuntimeToken, got %v", err)
	}
}

func TestFromPayloadInvalidExpiry(t *testing.T) {
	payload := map[string]any{
		"auth": map[string]any{
			"token":      "rt_abc",
			"expires_at": "next tuesday",
		},
	}
	if _, err := auth.FromPayload(payload); err == nil {
		t.Error("expected error for invalid expires_at")
	}
}

func TestFromPayloadNoExpiry(t *testing.T) {
	payload := map[string]any{
		"auth": map[string]any{"token": "rt_abc"},
	}
	info, err := auth.FromPayload(payload)
	if err != nil {
		t.Fatal(err)
	}
	if info.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil", info.ExpiresAt)
	}
	if info.Expired(time.Now()) {
		t.Error("token without expiry should never be expired")
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	expired := &auth.Info{Token: "rt_a", ExpiresAt: &past}
	if !expired.Expired(now) {
		t.Error("token expired a minute ago reported as valid")
	}

	valid := &auth.Info{Token: "rt_b", ExpiresAt: &future}
	if valid.Expired(now) {
		t.Error("token expiring in a minute reported as expired")
	}
}
