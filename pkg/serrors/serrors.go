// Package serrors provides semantic errors: sentinel kinds that classify a
// failure (transient, fatal, config, ...) combined with an optional wrapped
// cause and message. Callers branch on the kind with errors.Is without caring
// about the concrete cause.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a marker interface implemented by sentinel error kinds created with
// NewKind. It distinguishes semantic kinds from ordinary errors.
type Kind interface {
	error
	isKind()
}

// kind is the unexported sentinel implementation behind NewKind.
type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind (a sentinel) with the provided
// name. Kinds are comparable and match through errors.Is on any Error that
// carries them.
func NewKind(name string) Kind { return kind{s: name} }

// The kinds below form the failure taxonomy of a check run.
var (
	// ErrValidation indicates an input domain that failed normalization.
	// It never aborts anything; rejected entries are dropped.
	ErrValidation = NewKind("VALIDATION")
	// ErrTransient indicates a retryable condition: network failure,
	// request timeout, or a 5xx response. The query client retries these
	// with backoff up to its attempt budget.
	ErrTransient = NewKind("TRANSIENT")
	// ErrRateLimited indicates the API returned 429. It is retried like
	// any other transient failure; errors.Is also matches ErrTransient.
	ErrRateLimited = NewKind("RATE_LIMITED")
	// ErrFatal indicates an unretryable per-batch condition: a non-429
	// client error or a response that does not match the expected schema.
	// The batch is abandoned immediately, siblings keep running.
	ErrFatal = NewKind("FATAL")
	// ErrConfig indicates missing or malformed configuration. It aborts
	// the whole run before any batch is dispatched.
	ErrConfig = NewKind("CONFIG")
)

// Error is a semantic error carrying a kind sentinel, an optional wrapped
// cause and an optional message. It fully supports errors.Is/errors.As and
// unwrapping: matching succeeds against either the kind or the cause chain.
//
// Error string formatting:
//   - If both msg and err are set: "<msg>: <err>"
//   - If only msg is set: "<msg>"
//   - If only err is set: "<err>"
//   - If neither is set: the kind's Error() string.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With constructs a semantic error with the given kind and a formatted
// message. Use Wrap to also attach a concrete cause.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs a semantic error with the given kind, wrapping the provided
// cause and adding a formatted message.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly creates a semantic error carrying only the kind.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	default:
		if e.kind != nil {
			return e.kind.Error()
		}

		return "unknown error"
	}
}

// Unwrap returns the wrapped cause, enabling errors.Unwrap/Is/As traversal.
func (e *Error) Unwrap() error { return e.err }

// Is matches against either the kind sentinel or the wrapped cause chain.
// ErrRateLimited additionally matches ErrTransient, so retry loops only need
// to test one kind.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}
	if e.kind == ErrRateLimited && target == ErrTransient {
		return true
	}
	if e.err != nil && errors.Is(e.err, target) {
		return true
	}

	return false
}

// As matches type assertions against either the kind sentinel or the wrapped
// cause chain.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}
	if e.err != nil && errors.As(e.err, target) {
		return true
	}

	return false
}

// Kind returns the semantic kind sentinel associated with this error, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message attached to this error.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped cause (may be nil).
func (e *Error) Cause() error { return e.err }
