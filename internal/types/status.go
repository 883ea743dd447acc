package types

import (
	"fmt"
	"strings"
)

// Status is a node's position in the status lattice.
type Status string

const (
	// StatusPending is the initial, unknown status of every leaf.
	StatusPending Status = "PENDING"
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	// StatusSkipped is only ever assigned by the evaluator to a branch that a
	// short-circuiting AND/OR did not need.
	StatusSkipped Status = "SKIPPED"
	// StatusRemoved is reserved; the evaluator never produces it.
	StatusRemoved Status = "REMOVED"
)

// IsDefinitive reports whether s is PASSED or FAILED.
func (s Status) IsDefinitive() bool {
	return s == StatusPassed || s == StatusFailed
}

// Settable reports whether a caller may assign s to a leaf directly.
// SKIPPED belongs to the evaluator and REMOVED is reserved.
func (s Status) Settable() bool {
	switch s {
	case StatusPending, StatusPassed, StatusFailed:
		return true
	default:
		return false
	}
}

// ParseStatus converts a case-insensitive status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusPassed, StatusFailed, StatusSkipped, StatusRemoved:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}
