package kikettest

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/kiket-dev/dispatch"
)

// Recording is a captured webhook delivery saved to disk, replayable
// against an engine under test.
type Recording struct {
	Event   string         `json:"event"`
	Version string         `json:"version,omitempty"`
	Payload map[string]any `json:"payload"`
}

// LoadRecording reads a recorded delivery from a JSON file.
func LoadRecording(t *testing.T, path string) *Recording {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read recording %s: %v", path, err)
	}
	var rec Recording
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("parse recording %s: %v", path, err)
	}
	if rec.Event == "" {
		t.Fatalf("recording %s: missing event", path)
	}
	return &rec
}

// Replay re-signs and dispatches a recorded delivery.
func Replay(t *testing.T, engine *dispatch.Engine, path, secret string) dispatch.Response {
	t.Helper()
	rec := LoadRecording(t, path)
	opts := []RequestOption{}
	if rec.Version != "" {
		opts = append(opts, WithVersion(rec.Version))
	}
	return Deliver(t, engine, rec.Event, rec.Payload, secret, opts...)
}
