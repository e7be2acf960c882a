package errors

import (
	"errors"
	"fmt"
)

// Scope identifies the blast radius of a session processing error.
// Errors are contained at the smallest scope: an event error never fails its
// room, a room error never fails its file, and only a run-scoped error
// (ErrNoInput) terminates the process.
type Scope string

const (
	ScopeRun   Scope = "run"
	ScopeFile  Scope = "file"
	ScopeRoom  Scope = "room"
	ScopeEvent Scope = "event"
)

// SessionError is a structured error for session processing failures.
type SessionError struct {
	Scope   Scope
	Session string
	Room    string
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	switch {
	case e.Room != "" && e.Session != "":
		return fmt.Sprintf("%s: session %s, room %q: %s", e.Scope, e.Session, e.Room, e.Message)
	case e.Room != "":
		return fmt.Sprintf("%s: room %q: %s", e.Scope, e.Room, e.Message)
	case e.Session != "":
		return fmt.Sprintf("%s: session %s: %s", e.Scope, e.Session, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Scope, e.Message)
	}
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Recoverable reports whether processing should continue past this error.
// Only run-scoped errors are fatal.
func (e *SessionError) Recoverable() bool {
	return e.Scope != ScopeRun
}

// NewFileError returns a file-scoped SessionError wrapping ErrMalformedInput.
// Used when a whole session export cannot be parsed.
func NewFileError(session, message string) *SessionError {
	return &SessionError{
		Scope:   ScopeFile,
		Session: session,
		Message: message,
		Cause:   ErrMalformedInput,
	}
}

// NewRoomError returns a room-scoped SessionError wrapping ErrMalformedInput.
func NewRoomError(session, room, message string) *SessionError {
	return &SessionError{
		Scope:   ScopeRoom,
		Session: session,
		Room:    room,
		Message: message,
		Cause:   ErrMalformedInput,
	}
}

// NewEventError returns an event-scoped SessionError wrapping ErrUnattributableEvent.
func NewEventError(session, room, message string) *SessionError {
	return &SessionError{
		Scope:   ScopeEvent,
		Session: session,
		Room:    room,
		Message: message,
		Cause:   ErrUnattributableEvent,
	}
}

// NewDurationError returns an event-scoped SessionError wrapping ErrNegativeDuration.
func NewDurationError(session, room, message string) *SessionError {
	return &SessionError{
		Scope:   ScopeEvent,
		Session: session,
		Room:    room,
		Message: message,
		Cause:   ErrNegativeDuration,
	}
}

// AsSessionError returns the *SessionError in err's chain, or nil.
func AsSessionError(err error) *SessionError {
	var se *SessionError
	if errors.As(err, &se) {
		return se
	}
	return nil
}
