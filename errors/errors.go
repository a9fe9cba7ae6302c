// Package errors provides coded errors for the label engine.
//
// Codes separate configuration problems, which abort a batch before any
// rendering starts, from per-record problems, which are recorded against a
// single record while the rest of the batch continues.
//
//	err := errors.New(errors.ErrCodeInvalidRecord, "record %d: empty payload", i)
//	if errors.Is(err, errors.ErrCodeInvalidRecord) {
//	    // skip the record
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Fatal for the whole operation.
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeEmptyBatch    Code = "EMPTY_BATCH"

	// Isolated to one record.
	ErrCodeInvalidRecord Code = "INVALID_RECORD"
	ErrCodeEncode        Code = "ENCODE_FAILED"
	ErrCodeRender        Code = "RENDER_FAILED"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsFatal reports whether err must abort a whole batch rather than a single record.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidConfig, ErrCodeEmptyBatch, ErrCodeInternal:
		return true
	}
	return false
}

// UserMessage returns the message without the code prefix.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}
