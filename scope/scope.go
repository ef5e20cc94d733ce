// Package scope compares required authorization scopes against the scopes
// granted to a runtime token.
package scope

import (
	"fmt"
	"strings"
)

// Wildcard grants every scope when present in the granted set.
const Wildcard = "*"

// Check returns the required scopes that are not granted, in declaration
// order. A nil result means the check passed. An empty required set always
// passes: absence of a declaration means no scope requirement.
func Check(required, granted []string) []string {
	if len(required) == 0 {
		return nil
	}

	grantedSet := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		if s == Wildcard {
			return nil
		}
		grantedSet[s] = struct{}{}
	}

	var missing []string
	for _, s := range required {
		if _, ok := grantedSet[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// Require fails with a *DeniedError when any required scope is missing from
// the granted set. It is the imperative form used inside running handlers
// for scopes not known until runtime; the caller is expected to abort on
// denial rather than inspect a boolean.
func Require(granted []string, required ...string) error {
	missing := Check(required, granted)
	if len(missing) == 0 {
		return nil
	}
	return &DeniedError{Required: required, Missing: missing}
}

// DeniedError reports a failed scope check.
type DeniedError struct {
	// Required is the full set of scopes the check demanded.
	Required []string

	// Missing is exactly the subset of Required that was not granted.
	Missing []string
}

// Error implements the error interface.
func (e *DeniedError) Error() string {
	return fmt.Sprintf("scope: missing required scopes [%s]", strings.Join(e.Missing, ", "))
}
