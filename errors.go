package dispatch

import "errors"

// Sentinel errors returned by Engine and store operations.
var (
	// ErrNoWebhookSecret is returned when an Engine is created without a
	// webhook signing secret.
	ErrNoWebhookSecret = errors.New("dispatch: webhook secret is required")

	// ErrRecordNotFound is returned when an invocation record cannot be found.
	ErrRecordNotFound = errors.New("dispatch: invocation record not found")

	// ErrStoreClosed is returned when a store operation is attempted after
	// the store is closed.
	ErrStoreClosed = errors.New("dispatch: store is closed")
)
