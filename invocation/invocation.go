// Package invocation defines the per-invocation execution context handed to
// webhook handlers, and the handler signature itself.
package invocation

import (
	"context"
	"net/http"
	"sync"

	"github.com/kiket-dev/dispatch/auth"
	"github.com/kiket-dev/dispatch/endpoints"
	"github.com/kiket-dev/dispatch/scope"
	"github.com/kiket-dev/dispatch/secrets"
)

// Handler processes one webhook invocation. The returned value is
// serialized as the JSON response body; a nil result yields {"ok": true}.
type Handler func(ctx context.Context, payload map[string]any, inv *Invocation) (any, error)

// Invocation is the execution context for a single handler call. It is
// owned exclusively by the handler during its execution and must not be
// retained after the call returns.
type Invocation struct {
	// Event and Version identify the resolved registration.
	Event   string
	Version string

	// Headers are the inbound request headers (case-insensitive keys).
	Headers http.Header

	// Settings is the process-wide configuration snapshot exposed to
	// handlers (manifest defaults merged with explicit settings).
	Settings map[string]any

	// ExtensionID and ExtensionVersion identify the running extension.
	ExtensionID      string
	ExtensionVersion string

	authInfo *auth.Info
	resolver *secrets.Resolver
	client   *endpoints.Client

	mu          sync.Mutex
	annotations map[string]any
}

// Params collects everything needed to build an Invocation.
type Params struct {
	Event            string
	Version          string
	Headers          http.Header
	Settings         map[string]any
	ExtensionID      string
	ExtensionVersion string
	Auth             *auth.Info
	Secrets          *secrets.Resolver
	Client           *endpoints.Client
}

// New assembles an Invocation from the given parts.
func New(p Params) *Invocation {
	return &Invocation{
		Event:            p.Event,
		Version:          p.Version,
		Headers:          p.Headers,
		Settings:         p.Settings,
		ExtensionID:      p.ExtensionID,
		ExtensionVersion: p.ExtensionVersion,
		authInfo:         p.Auth,
		resolver:         p.Secrets,
		client:           p.Client,
	}
}

// Auth returns the invocation's authentication info. Absence is explicit:
// a handler registered without required scopes may run unauthenticated, in
// which case Auth returns auth.ErrMissingRuntimeToken rather than a zero
// value.
func (inv *Invocation) Auth() (*auth.Info, error) {
	if inv.authInfo == nil {
		return nil, auth.ErrMissingRuntimeToken
	}
	return inv.authInfo, nil
}

// Scopes returns the scopes granted to the runtime token, or nil when the
// invocation is unauthenticated.
func (inv *Invocation) Scopes() []string {
	if inv.authInfo == nil {
		return nil
	}
	return inv.authInfo.Scopes
}

// RequireScopes enforces scopes not known until runtime from inside a
// running handler. Denial returns a *scope.DeniedError, which fails the
// current invocation when propagated.
func (inv *Invocation) RequireScopes(required ...string) error {
	return scope.Require(inv.Scopes(), required...)
}

// Secret resolves a named secret through the two-tier fallback chain:
// the payload's per-organization secrets first, then the environment.
func (inv *Invocation) Secret(key string) (string, bool) {
	if inv.resolver == nil {
		return "", false
	}
	return inv.resolver.Get(key)
}

// Endpoints returns the outbound platform client authenticated with this
// invocation's runtime token.
func (inv *Invocation) Endpoints() *endpoints.Client {
	return inv.client
}

// Emit annotates the invocation's telemetry record with a metadata field.
// Annotations are attached to the record after the handler returns.
func (inv *Invocation) Emit(key string, value any) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.annotations == nil {
		inv.annotations = make(map[string]any)
	}
	inv.annotations[key] = value
}

// Annotations returns a copy of the metadata emitted during execution.
func (inv *Invocation) Annotations() map[string]any {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if len(inv.annotations) == 0 {
		return nil
	}
	out := make(map[string]any, len(inv.annotations))
	for k, v := range inv.annotations {
		out[k] = v
	}
	return out
}
