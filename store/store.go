// Package store defines the optional invocation audit log persistence
// interface.
//
// The engine writes one record per completed invocation, best effort: a
// failed write is logged and never affects the handler outcome. Backends
// live in subpackages (memory for tests, redis for production).
package store

import (
	"context"
	"time"

	"github.com/kiket-dev/dispatch/id"
	"github.com/kiket-dev/dispatch/internal/entity"
)

// Record is one persisted invocation outcome.
type Record struct {
	entity.Entity

	// ID is the unique TypeID for this invocation.
	ID id.ID `json:"id"`

	// Event and Version identify the registration that handled it.
	Event   string `json:"event"`
	Version string `json:"version"`

	// Status is "ok" or "error".
	Status string `json:"status"`

	// DurationMS is the handler execution time in milliseconds.
	DurationMS float64 `json:"duration_ms"`

	// Error carries failure detail for error outcomes.
	Error string `json:"error,omitempty"`

	// ReceivedAt is when the inbound request was captured.
	ReceivedAt time.Time `json:"received_at"`
}

// ListOpts configures filtering and pagination for record listing.
type ListOpts struct {
	Offset int
	Limit  int
	Event  string
	Status string
}

// Store is the invocation audit log persistence interface.
type Store interface {
	// SaveRecord persists one invocation record.
	SaveRecord(ctx context.Context, rec *Record) error

	// GetRecord returns a record by ID.
	GetRecord(ctx context.Context, recID id.ID) (*Record, error)

	// ListRecords returns records most recent first.
	ListRecords(ctx context.Context, opts ListOpts) ([]*Record, error)

	// CountByStatus returns the number of stored records with the status.
	CountByStatus(ctx context.Context, status string) (int, error)

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
