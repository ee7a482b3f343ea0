package overtone

import "errors"

// Error kinds returned by the degree-keyed and note-name operations. All are
// caller-recoverable; operations fail before mutating any state. Call sites
// wrap these with context, so match with errors.Is.
var (
	// ErrInvalidPartialDegree is returned when a degree <= 1 is passed to a
	// partial-creating operation. Degree 1 is the fundamental and is never a
	// partial.
	ErrInvalidPartialDegree = errors.New("partial degree must be greater than 1")

	// ErrDuplicatePartial is returned when adding a degree that is already
	// registered.
	ErrDuplicatePartial = errors.New("partial already exists")

	// ErrPartialNotFound is returned by any degree-keyed lookup for an
	// absent degree.
	ErrPartialNotFound = errors.New("partial not found")

	// ErrUnknownNoteName is returned when a note name cannot be resolved to
	// a frequency.
	ErrUnknownNoteName = errors.New("unknown note name")
)
