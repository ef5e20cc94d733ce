// Package manifest loads and validates extension.yaml, the static
// descriptor an extension ships with: identity, handled events, setting
// defaults, and the secret keys it expects at runtime.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Filenames probed by Discover, in order.
var Filenames = []string{"extension.yaml", "extension.yml"}

// ErrNotFound is returned when no manifest file exists in a directory.
var ErrNotFound = errors.New("manifest: no extension.yaml found")

// Manifest is the parsed extension descriptor.
type Manifest struct {
	// Name is the extension identifier, required.
	Name string `yaml:"name"`

	// Version is the extension's own version string, required.
	Version string `yaml:"version"`

	Description string `yaml:"description,omitempty"`

	// Events lists the event registrations the extension declares.
	Events []Event `yaml:"events,omitempty"`

	// Settings maps setting names to their declarations.
	Settings map[string]Setting `yaml:"settings,omitempty"`

	// Secrets lists the secret keys the extension resolves at runtime.
	Secrets []string `yaml:"secrets,omitempty"`
}

// Event is one declared event registration.
type Event struct {
	Name    string   `yaml:"name"`
	Version string   `yaml:"version,omitempty"`
	Scopes  []string `yaml:"scopes,omitempty"`
}

// Setting declares one configurable value with an optional default and an
// optional environment variable override.
type Setting struct {
	Default     any    `yaml:"default,omitempty"`
	Env         string `yaml:"env,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Load parses and validates a manifest file.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Discover loads the manifest from the first matching filename in dir.
func Discover(dir string) (*Manifest, error) {
	for _, name := range Filenames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return nil, fmt.Errorf("%w in %s", ErrNotFound, dir)
}

// Validate checks the required fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return errors.New("manifest: name is required")
	}
	if m.Version == "" {
		return errors.New("manifest: version is required")
	}
	for i, ev := range m.Events {
		if ev.Name == "" {
			return fmt.Errorf("manifest: events[%d]: name is required", i)
		}
	}
	return nil
}

// SettingValues resolves the settings map for handlers: each setting's
// default, overridden by its declared environment variable when set.
// A nil lookup uses the process environment.
func (m *Manifest) SettingValues(lookup func(string) (string, bool)) map[string]any {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	out := make(map[string]any, len(m.Settings))
	for name, s := range m.Settings {
		if s.Env != "" {
			if v, ok := lookup(s.Env); ok {
				out[name] = v
				continue
			}
		}
		if s.Default != nil {
			out[name] = s.Default
		}
	}
	return out
}

// SecretKeys returns the declared secret keys.
func (m *Manifest) SecretKeys() []string {
	return m.Secrets
}
