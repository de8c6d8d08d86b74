package errors

import (
	stderrs "errors"
	"fmt"
)

// Error is the orchestrator's error type. It carries a classification
// code and, when the failure is attributable to a single resource, the
// id of the descriptor that failed.
type Error struct {
	Code         Code
	DescriptorID string
	Message      string
	WrappedError error
}

func (e *Error) Error() string {
	switch {
	case e.DescriptorID != "" && e.WrappedError != nil:
		return fmt.Sprintf("[%s] %s: %s: %v", e.Code, e.DescriptorID, e.Message, e.WrappedError)
	case e.DescriptorID != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.DescriptorID, e.Message)
	case e.WrappedError != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.WrappedError)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.WrappedError
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ForDescriptor builds an error attributed to one descriptor.
func ForDescriptor(code Code, descriptorID, message string) *Error {
	return &Error{Code: code, DescriptorID: descriptorID, Message: message}
}

// Wrap attaches a code and message to an underlying error. A nil err
// yields nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, WrappedError: err}
}

// WrapDescriptor is Wrap with a descriptor attribution.
func WrapDescriptor(err error, code Code, descriptorID, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, DescriptorID: descriptorID, Message: message, WrappedError: err}
}

// GetCode extracts the classification code from an error chain.
func GetCode(err error) Code {
	var e *Error
	if stderrs.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether the error chain carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	if stderrs.As(err, &e) {
		return e.Code == code
	}
	return false
}

// DescriptorID extracts the descriptor attribution from an error chain,
// or "" when the error is not tied to a single descriptor.
func DescriptorID(err error) string {
	var e *Error
	if stderrs.As(err, &e) {
		return e.DescriptorID
	}
	return ""
}
