package dispatch

// Decision is a conventional handler result for approval-style events,
// such as gating a transition or a merge. Handlers return one as their
// result value; the platform reads the serialized form.
type Decision struct {
	Allowed bool `json:"allowed"`

	// Pending marks a decision deferred to a later out-of-band update.
	Pending bool `json:"pending,omitempty"`

	// Reason is the human-readable explanation for denials and holds.
	Reason string `json:"reason,omitempty"`

	// Metadata carries handler-defined detail alongside the decision.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Allow approves the gated action.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny rejects the gated action with a reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Pending defers the decision, keeping the gated action on hold.
func Pending(reason string) Decision {
	return Decision{Pending: true, Reason: reason}
}

// WithMetadata returns a copy of the decision carrying the given metadata.
func (d Decision) WithMetadata(m map[string]any) Decision {
	d.Metadata = m
	return d
}
