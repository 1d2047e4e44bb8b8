package errors

import (
	"fmt"
	"strings"
)

// Kind categorizes the error
type Kind string

const (
	KindCapabilityNotFound   Kind = "capability_not_found"
	KindPermissionDenied     Kind = "permission_denied"
	KindInvocationFailure    Kind = "invocation_failure"
	KindBadValue             Kind = "bad_value"
	KindEncodingFailure      Kind = "encoding_failure"
	KindTransportUnavailable Kind = "transport_unavailable"
	KindRegistration         Kind = "registration"
	KindObjectNotFound       Kind = "object_not_found"
	KindMalformed            Kind = "malformed"
)

// Sentinels for errors.Is checks. Only the Kind is compared.
var (
	ErrCapabilityNotFound   = &Error{Kind: KindCapabilityNotFound}
	ErrPermissionDenied     = &Error{Kind: KindPermissionDenied}
	ErrInvocationFailure    = &Error{Kind: KindInvocationFailure}
	ErrBadValue             = &Error{Kind: KindBadValue}
	ErrEncodingFailure      = &Error{Kind: KindEncodingFailure}
	ErrTransportUnavailable = &Error{Kind: KindTransportUnavailable}
	ErrRegistration         = &Error{Kind: KindRegistration}
	ErrObjectNotFound       = &Error{Kind: KindObjectNotFound}
	ErrMalformed            = &Error{Kind: KindMalformed}
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Kind   Kind
	Op     string // GET, SET, INVOKE, emit, eval, ...
	Name   string // property, function or object name involved
	Detail string
	Cause  error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteByte(' ')
	}
	if e.Name != "" {
		b.WriteString(e.Name)
		b.WriteString(": ")
	}
	b.WriteString(strings.ReplaceAll(string(e.Kind), "_", " "))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind
func New(kind Kind, op, name string) *Error {
	return &Error{Kind: kind, Op: op, Name: name}
}

// WithDetail sets the human-readable detail message
func (e *Error) WithDetail(msg string, args ...any) *Error {
	if len(args) > 0 {
		e.Detail = fmt.Sprintf(msg, args...)
	} else {
		e.Detail = msg
	}
	return e
}

// WithCause sets the underlying error
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// KindOf returns the kind of err, or "" when err is not an *Error
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Convenience constructors for common error patterns

// NotFound creates a capability-not-found error
func NotFound(op, name string) *Error {
	return New(KindCapabilityNotFound, op, name)
}

// Denied creates a permission-denied error
func Denied(op, name string) *Error {
	return New(KindPermissionDenied, op, name)
}

// Invocation wraps a callable failure
func Invocation(name string, cause error) *Error {
	return New(KindInvocationFailure, "INVOKE", name).WithCause(cause)
}

// Encoding wraps a JSON encode or decode failure
func Encoding(op string, cause error) *Error {
	return New(KindEncodingFailure, op, "").WithCause(cause)
}

// Unavailable creates a transport-unavailable error
func Unavailable(op string) *Error {
	return New(KindTransportUnavailable, op, "")
}
