package mount

import "errors"

// Common errors for mount registry and manager operations.
var (
	// ErrNotFound is returned when no mount with the given id exists.
	ErrNotFound = errors.New("mount not found")

	// ErrDuplicateMount is returned when a new mount's name sanitizes to
	// the same slug as an existing one, which would collide at the OS
	// level (same mount point, same unit name).
	ErrDuplicateMount = errors.New("mount with the same name already exists")

	// ErrInvalidInput is the class of all validation failures. Wrapped
	// errors carry the specific violated rule.
	ErrInvalidInput = errors.New("invalid input")
)
