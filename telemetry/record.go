// Package telemetry captures and forwards per-invocation outcome records.
//
// Telemetry is an isolated failure domain: both sinks are best effort, all
// internal failures are caught and logged, and nothing here may ever affect
// a handler's response.
package telemetry

import "time"

// Status classifies an invocation outcome.
type Status string

const (
	// StatusOK marks a handler invocation that returned normally.
	StatusOK Status = "ok"

	// StatusError marks a handler invocation that failed.
	StatusError Status = "error"
)

// Record is the structured summary of one handler invocation. It is created
// once, immediately after the handler completes or fails, and never mutated.
type Record struct {
	Event            string         `json:"event"`
	Version          string         `json:"version"`
	Status           Status         `json:"status"`
	DurationMS       float64        `json:"duration_ms"`
	Error            string         `json:"error,omitempty"`
	ExtensionID      string         `json:"extension_id,omitempty"`
	ExtensionVersion string         `json:"extension_version,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
}
