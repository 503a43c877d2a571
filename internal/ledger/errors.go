package ledger

import "errors"

// Sentinel errors for the ledger and its callers. Wrapped with %w so the
// HTTP layer can map them to transport codes via errors.Is.
var (
	// ErrNotFound means the assignment (or its expected status) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the ticket already has an active assignment.
	ErrConflict = errors.New("conflict: ticket already assigned")
	// ErrValidation means the input is malformed or references unknown entities.
	ErrValidation = errors.New("validation failed")
)
