// Package apierr defines the error taxonomy shared by the core and its
// transports: InvalidArgument, NotFound, AlreadyExists, IoError,
// CorruptWal, and Internal.
package apierr

import (
	"errors"
	"fmt"
)

// Code classifies a core-level failure so transports can map it onto
// their own wire representation (HTTP status, gRPC status, ...).
type Code int

const (
	Internal Code = iota
	InvalidArgument
	NotFound
	AlreadyExists
	IoError
	CorruptWal
)

func (c Code) String() string {
	switch c {
	case InvalidArgument:
		return "InvalidArgument"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case IoError:
		return "IoError"
	case CorruptWal:
		return "CorruptWal"
	default:
		return "Internal"
	}
}

// Error wraps an underlying cause with a Code a transport can branch on.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a code-tagged error with a message, no wrapped cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error with a code and a message.
func Wrap(code Code, msg string, err error) error {
	return &Error{Code: code, Msg: msg, Err: err}
}

// CodeOf extracts the Code from err, defaulting to Internal when err is
// not (or does not wrap) an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}
