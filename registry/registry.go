// Package registry maps (event, version) pairs to registered webhook
// handlers. Resolution is exact-match on both coordinates; there is no
// wildcard or fallback routing.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kiket-dev/dispatch/invocation"
)

// DefaultVersion is assumed when a registration or an inbound request
// names no version.
const DefaultVersion = "v1"

var (
	// ErrDuplicateRegistration is returned when an (event, version) pair
	// is registered twice.
	ErrDuplicateRegistration = errors.New("registry: duplicate registration")

	// ErrNotFound is returned when no handler matches an (event, version)
	// pair exactly.
	ErrNotFound = errors.New("registry: no handler registered")
)

// EventKey is the composite routing key for a registration.
type EventKey struct {
	Event   string
	Version string
}

// String renders the key in "event@version" form.
func (k EventKey) String() string {
	return k.Event + "@" + k.Version
}

// Registration binds a handler to an event key with its declared
// requirements.
type Registration struct {
	Key            EventKey
	Handler        invocation.Handler
	RequiredScopes []string

	// Schema, when non-nil, is a JSON Schema document the inbound
	// payload must satisfy before the handler runs.
	Schema any
}

// Registry holds handler registrations. Registration happens at startup;
// Resolve is safe for concurrent use during dispatch.
type Registry struct {
	mu       sync.RWMutex
	handlers map[EventKey]*Registration
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		handlers: make(map[EventKey]*Registration),
	}
}

// RegisterOption configures a registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	version string
	scopes  []string
	schema  any
}

// WithVersion registers the handler under the given version instead of
// DefaultVersion.
func WithVersion(version string) RegisterOption {
	return func(o *registerOptions) { o.version = version }
}

// WithRequiredScopes declares the scopes a runtime token must carry for
// the handler to run.
func WithRequiredScopes(scopes ...string) RegisterOption {
	return func(o *registerOptions) { o.scopes = scopes }
}

// WithSchema attaches a JSON Schema document that inbound payloads are
// validated against.
func WithSchema(schema any) RegisterOption {
	return func(o *registerOptions) { o.schema = schema }
}

// Register binds a handler to an event name. The version defaults to
// DefaultVersion unless WithVersion is given.
func (r *Registry) Register(event string, h invocation.Handler, opts ...RegisterOption) (*Registration, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return nil, errors.New("registry: event name is required")
	}
	if h == nil {
		return nil, errors.New("registry: handler is required")
	}

	ro := registerOptions{version: DefaultVersion}
	for _, o := range opts {
		o(&ro)
	}
	if strings.TrimSpace(ro.version) == "" {
		ro.version = DefaultVersion
	}

	key := EventKey{Event: event, Version: ro.version}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRegistration, key)
	}

	reg := &Registration{
		Key:            key,
		Handler:        h,
		RequiredScopes: ro.scopes,
		Schema:         ro.schema,
	}
	r.handlers[key] = reg

	return reg, nil
}

// Resolve returns the registration exactly matching the given event and
// version. An empty version resolves against DefaultVersion.
func (r *Registry) Resolve(event, version string) (*Registration, error) {
	if version == "" {
		version = DefaultVersion
	}
	key := EventKey{Event: event, Version: version}

	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.handlers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return reg, nil
}

// Keys returns all registered keys in "event@version" form, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
