package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kiket-dev/dispatch"
	"github.com/kiket-dev/dispatch/api"
	"github.com/kiket-dev/dispatch/invocation"
	"github.com/kiket-dev/dispatch/kikettest"
	"github.com/kiket-dev/dispatch/registry"
	"github.com/kiket-dev/dispatch/store/memory"
)

func newHandler(t *testing.T) *api.Handler {
	t.Helper()
	e, err := dispatch.New(
		dispatch.WithWebhookSecret(kikettest.Secret),
		dispatch.WithTelemetryDisabled(),
		dispatch.WithStore(memory.New()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() }) //nolint:errcheck

	if err := e.Register("issue.created", func(ctx context.Context, payload map[string]any, inv *invocation.Invocation) (any, error) {
		return map[string]any{"issue": payload["issue_id"]}, nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := e.Register("issue.created", func(ctx context.Context, payload map[string]any, inv *invocation.Invocation) (any, error) {
		return map[string]any{"generation": "v2"}, nil
	}, registry.WithVersion("v2")); err != nil {
		t.Fatal(err)
	}

	return api.NewHandler(e, nil)
}

func TestWebhookRoute(t *testing.T) {
	h := newHandler(t)

	rec := kikettest.Post(t, h, "/webhooks/issue.created", map[string]any{"issue_id": "iss_1"}, kikettest.Secret)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := kikettest.DecodeBody(t, rec); got["issue"] != "iss_1" {
		t.Errorf("body = %v", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestVersionedWebhookRoute(t *testing.T) {
	h := newHandler(t)

	rec := kikettest.Post(t, h, "/v/v2/webhooks/issue.created", map[string]any{}, kikettest.Secret)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := kikettest.DecodeBody(t, rec); got["generation"] != "v2" {
		t.Errorf("body = %v", got)
	}
}

func TestWebhookRouteBadSignature(t *testing.T) {
	h := newHandler(t)

	rec := kikettest.Post(t, h, "/webhooks/issue.created", map[string]any{}, "whsec_wrong")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := kikettest.DecodeBody(t, rec); got["error"] != dispatch.FailureSignatureInvalid {
		t.Errorf("body = %v", got)
	}
}

func TestWebhookRouteUnknownEvent(t *testing.T) {
	h := newHandler(t)

	rec := kikettest.Post(t, h, "/webhooks/no.such.event", map[string]any{}, kikettest.Secret)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/issue.created", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := kikettest.DecodeBody(t, rec)
	if body["status"] != "ok" || body["store"] != "ok" {
		t.Errorf("body = %v", body)
	}
	events, _ := body["events"].([]any)
	if len(events) != 2 {
		t.Errorf("events = %v", body["events"])
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := newHandler(t)

	huge := strings.NewReader(`{"pad":"` + strings.Repeat("x", api.MaxBodyBytes+1) + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/issue.created", huge)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}
