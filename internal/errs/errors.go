// Package errs provides the unified error type used across all of idwiden.
//
// Every subsystem (catalog, engine, database, filestore, server, …) wraps its
// native errors into *errs.Error before returning them to callers. Callers use
// the Is* predicates to decide whether a failure is fatal for the run, fatal
// for one file, or just worth a log line.
//
// Usage:
//
//	// While loading rules, refuse to start:
//	return errs.Newf(errs.ErrKindConfiguration, "rule %q references unknown entity %q", r.Name, r.Entity)
//
//	// In the engine, isolate a per-file failure:
//	if errs.IsRead(err) {
//	    reporter.Fail(path, err)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
type ErrKind int

const (
	ErrKindUnknown              ErrKind = iota
	ErrKindConfiguration                // broken rule set or entity table; halts the run
	ErrKindRead                         // a candidate file could not be read
	ErrKindAmbiguousDeclaration         // overlapping declaration spans within one file
	ErrKindWrite                        // rewritten content could not be persisted
	ErrKindNotFound                     // no rows, no object, no bucket
	ErrKindConnectionFailed             // cannot reach the backend
	ErrKindTimeout                      // context deadline / cancellation
	ErrKindQueryFailed                  // SQL or storage operation error
	ErrKindInvalidInput                 // bad arguments from the caller
	ErrKindPermissionDenied             // access denied / auth failure
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConfiguration:
		return "configuration"
	case ErrKindRead:
		return "read"
	case ErrKindAmbiguousDeclaration:
		return "ambiguous_declaration"
	case ErrKindWrite:
		return "write"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all idwiden subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsConfiguration reports whether err is a configuration error (unknown
// entity reference, duplicate entity, invalid type tokens, …).
func IsConfiguration(err error) bool {
	return KindOf(err) == ErrKindConfiguration
}

// IsRead reports whether err is a per-file read failure.
func IsRead(err error) bool {
	return KindOf(err) == ErrKindRead
}

// IsAmbiguousDeclaration reports whether err was raised because two matched
// declaration spans overlapped.
func IsAmbiguousDeclaration(err error) bool {
	return KindOf(err) == ErrKindAmbiguousDeclaration
}

// IsWrite reports whether err is a per-file write failure.
func IsWrite(err error) bool {
	return KindOf(err) == ErrKindWrite
}

// IsNotFound reports whether err represents a "not found" result
// (no rows, missing object, unknown table/bucket, …).
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
