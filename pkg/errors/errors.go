// Package errors provides common domain error types for the delib application.
//
// This package defines sentinel errors for the conditions the report pipeline
// has to distinguish: unusable input files, malformed room records,
// unattributable events, and clock-skewed intervals. Using typed errors
// enables consistent error handling with errors.Is() checks.
//
// Usage:
//
//	import dlerrors "github.com/otherjamesbrown/delib-cli/pkg/errors"
//
//	// Return a domain error
//	return nil, dlerrors.ErrNoInput
//
//	// Check for domain errors
//	if dlerrors.IsNoInput(err) {
//	    // abort the run
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for pipeline conditions.
var (
	// ErrNoInput indicates no session files were discovered. This is the
	// only condition that aborts a whole run.
	ErrNoInput = errors.New("no input found")

	// ErrMalformedInput indicates a room record is missing a required
	// section (e.g. no room name, no user list). The room is skipped.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnattributableEvent indicates an event references a participant id
	// that is not known in its room. The single event is skipped.
	ErrUnattributableEvent = errors.New("unattributable event")

	// ErrNegativeDuration indicates a computed interval length was negative
	// (clock skew in the source data). The length is clamped to zero.
	ErrNegativeDuration = errors.New("negative duration")
)

// IsNoInput reports whether any error in err's chain is ErrNoInput.
func IsNoInput(err error) bool {
	return errors.Is(err, ErrNoInput)
}

// IsMalformedInput reports whether any error in err's chain is ErrMalformedInput.
func IsMalformedInput(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

// IsUnattributableEvent reports whether any error in err's chain is ErrUnattributableEvent.
func IsUnattributableEvent(err error) bool {
	return errors.Is(err, ErrUnattributableEvent)
}

// IsNegativeDuration reports whether any error in err's chain is ErrNegativeDuration.
func IsNegativeDuration(err error) bool {
	return errors.Is(err, ErrNegativeDuration)
}
