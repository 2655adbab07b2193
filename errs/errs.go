// Package errs defines the platform-wide error taxonomy. Packages wrap
// these sentinels so callers can classify failures with errors.Is
// without depending on the failing subsystem.
package errs

import "errors"

var (
	// ErrNotFound marks a missing id (component, agent, job, artifact).
	ErrNotFound = errors.New("not found")

	// ErrInvalid marks a structural validation failure.
	ErrInvalid = errors.New("invalid")
)
