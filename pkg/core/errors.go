package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the compiler and by operations.
type ErrorKind string

const (
	// KindConstruction covers failures while building the operation set:
	// unreadable collections, malformed body templates, missing variables.
	KindConstruction ErrorKind = "construction"
	// KindValidation means caller data did not match the operation's shape.
	KindValidation ErrorKind = "validation"
	// KindTransport means the HTTP call failed or returned a non-2xx status.
	KindTransport ErrorKind = "transport"
	// KindUnknownOperation means the caller named an operation the client
	// does not have. Nothing was validated or sent.
	KindUnknownOperation ErrorKind = "unknown_operation"
)

// Error is the error type returned by every exported operation in this
// package. Message is complete and already carries its kind prefix.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func constructionError(msg string, err error) *Error {
	return &Error{Kind: KindConstruction, Message: msg, Err: err}
}

func validationError(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf("validation error: %s", err.Error()), Err: err}
}

func transportError(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Message: fmt.Sprintf("request failed: %s", err.Error()), Err: err}
}

func unknownOperationError(name string) *Error {
	return &Error{Kind: KindUnknownOperation, Op: name, Message: fmt.Sprintf("%s: %q", ErrUnknownOperation, name), Err: ErrUnknownOperation}
}

func kindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsConstruction reports whether err is a construction failure.
func IsConstruction(err error) bool { return kindOf(err) == KindConstruction }

// IsValidation reports whether err is a call-time validation failure.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool { return kindOf(err) == KindTransport }

// ErrUnknownOperation is wrapped by the *Error returned for names that were
// not compiled; match it with errors.Is.
var ErrUnknownOperation = errors.New("unknown operation")
