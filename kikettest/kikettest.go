// Package kikettest provides test helpers for exercising a dispatch
// engine with correctly signed webhook deliveries, in-process or over
// httptest.
package kikettest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiket-dev/dispatch"
	"github.com/kiket-dev/dispatch/signature"
)

// Secret is the default signing secret fixtures use.
const Secret = "whsec_test"

// SignedHeaders builds the signature and timestamp headers for a raw body.
func SignedHeaders(body []byte, secret string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set(dispatch.HeaderSignature, signature.Sign(body, secret))
	h.Set(dispatch.HeaderTimestamp, time.Now().UTC().Format(time.RFC3339))
	return h
}

// MarshalPayload serializes a payload for delivery.
func MarshalPayload(t *testing.T, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

// RequestOption adjusts a fixture request.
type RequestOption func(*dispatch.Request)

// WithVersion sets the path version on a fixture request.
func WithVersion(version string) RequestOption {
	return func(r *dispatch.Request) { r.Version = version }
}

// WithHeader sets one header on a fixture request.
func WithHeader(key, value string) RequestOption {
	return func(r *dispatch.Request) { r.Headers.Set(key, value) }
}

// WithoutSignature strips the signature header, for negative tests.
func WithoutSignature() RequestOption {
	return func(r *dispatch.Request) { r.Headers.Del(dispatch.HeaderSignature) }
}

// NewRequest builds a signed dispatch.Request for an event payload.
func NewRequest(t *testing.T, event string, payload any, secret string, opts ...RequestOption) dispatch.Request {
	t.Helper()
	body := MarshalPayload(t, payload)
	req := dispatch.Request{
		Event:   event,
		Headers: SignedHeaders(body, secret),
		Body:    body,
	}
	for _, o := range opts {
		o(&req)
	}
	return req
}

// Deliver dispatches a signed event payload straight into an engine.
func Deliver(t *testing.T, engine *dispatch.Engine, event string, payload any, secret string, opts ...RequestOption) dispatch.Response {
	t.Helper()
	return engine.Dispatch(context.Background(), NewRequest(t, event, payload, secret, opts...))
}

// Post delivers a signed event payload through an HTTP handler and
// returns the recorded response.
func Post(t *testing.T, handler http.Handler, path string, payload any, secret string) *httptest.ResponseRecorder {
	t.Helper()
	body := MarshalPayload(t, payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	for k, vs := range SignedHeaders(body, secret) {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// DecodeBody unmarshals a recorded JSON response body.
func DecodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return out
}
