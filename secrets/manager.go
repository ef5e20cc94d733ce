package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kiket-dev/dispatch/signature"
)

// Sentinel errors for secret store operations.
var (
	// ErrNoExtensionID is returned when a Manager operation runs without an
	// extension identifier to scope it.
	ErrNoExtensionID = errors.New("secrets: extension id is required")

	// ErrBlankValue is returned when storing an empty secret value.
	ErrBlankValue = errors.New("secrets: secret value cannot be blank")
)

// APIClient is the narrow outbound contract the Manager needs.
// *endpoints.Client satisfies it.
type APIClient interface {
	Get(ctx context.Context, path string, params url.Values, out any) error
	Post(ctx context.Context, path string, body any, out any) error
	Delete(ctx context.Context, path string) error
}

// Metadata describes a stored secret without exposing its value.
type Metadata struct {
	Key       string     `json:"key"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Value is a stored secret including its value.
type Value struct {
	Metadata
	Value string `json:"value"`
}

// Manager performs CRUD and rotation on extension secrets via the platform
// API. It is used by out-of-core tooling, never by the dispatch hot path.
type Manager struct {
	api         APIClient
	extensionID string
}

// NewManager creates a Manager scoped to the given extension.
func NewManager(api APIClient, extensionID string) *Manager {
	return &Manager{api: api, extensionID: extensionID}
}

// WithExtension returns a Manager scoped to a different extension.
func (m *Manager) WithExtension(extensionID string) *Manager {
	return &Manager{api: m.api, extensionID: extensionID}
}

// List returns metadata for every secret stored for the extension.
func (m *Manager) List(ctx context.Context) ([]Metadata, error) {
	base, err := m.basePath()
	if err != nil {
		return nil, err
	}

	var out []Metadata
	if err := m.api.Get(ctx, base, nil, &out); err != nil {
		return nil, fmt.Errorf("secrets: list for extension %q: %w", m.extensionID, err)
	}
	return out, nil
}

// Get fetches a secret's value by key.
func (m *Manager) Get(ctx context.Context, key string) (*Value, error) {
	base, err := m.basePath()
	if err != nil {
		return nil, err
	}

	var out Value
	if err := m.api.Get(ctx, base+"/"+url.PathEscape(key), nil, &out); err != nil {
		return nil, fmt.Errorf("secrets: fetch %q: %w", key, err)
	}
	if out.Key == "" {
		out.Key = key
	}
	return &out, nil
}

// Set stores a secret value under the given key.
func (m *Manager) Set(ctx context.Context, key, value string) error {
	if value == "" {
		return ErrBlankValue
	}

	base, err := m.basePath()
	if err != nil {
		return err
	}

	body := map[string]any{"secret": map[string]string{"key": key, "value": value}}
	if err := m.api.Post(ctx, base, body, nil); err != nil {
		return fmt.Errorf("secrets: persist %q: %w", key, err)
	}
	return nil
}

// Rotate replaces the secret under key with a freshly generated value and
// returns the new value.
func (m *Manager) Rotate(ctx context.Context, key string) (string, error) {
	next := signature.GenerateSecret()
	if err := m.Set(ctx, key, next); err != nil {
		return "", err
	}
	return next, nil
}

// Delete removes a stored secret.
func (m *Manager) Delete(ctx context.Context, key string) error {
	base, err := m.basePath()
	if err != nil {
		return err
	}

	if err := m.api.Delete(ctx, base+"/"+url.PathEscape(key)); err != nil {
		return fmt.Errorf("secrets: delete %q: %w", key, err)
	}
	return nil
}

func (m *Manager) basePath() (string, error) {
	if m.extensionID == "" {
		return "", ErrNoExtensionID
	}
	return "/api/v1/extensions/" + url.PathEscape(m.extensionID) + "/secrets", nil
}
