package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures across the capture and filing paths.
type ErrorKind string

const (
	ErrKindMissingConfiguration   ErrorKind = "missing_configuration"
	ErrKindInvalidUpstreamPayload ErrorKind = "invalid_upstream_payload"
	ErrKindUpstreamCallFailure    ErrorKind = "upstream_call_failure"
	ErrKindValidation             ErrorKind = "validation_error"
	ErrKindPermissionDenied       ErrorKind = "permission_denied"
)

// ErrMissingField is returned when a required submission field is empty.
var ErrMissingField = errors.New("missing required field")

// Error is a classified failure. Raw holds offending upstream text and
// Details holds upstream diagnostics; both are optional.
type Error struct {
	Kind    ErrorKind
	Message string
	Raw     string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MissingConfiguration reports an absent credential or endpoint.
func MissingConfiguration(message string) *Error {
	return &Error{Kind: ErrKindMissingConfiguration, Message: message}
}

// InvalidUpstreamPayload reports an unparseable upstream response.
func InvalidUpstreamPayload(message string, raw string) *Error {
	return &Error{Kind: ErrKindInvalidUpstreamPayload, Message: message, Raw: raw}
}

// UpstreamCallFailure reports a failed call to an external API.
func UpstreamCallFailure(message string, details string, err error) *Error {
	return &Error{Kind: ErrKindUpstreamCallFailure, Message: message, Details: details, Err: err}
}

// ValidationError reports missing or malformed input.
func ValidationError(message string) *Error {
	return &Error{Kind: ErrKindValidation, Message: message, Err: ErrMissingField}
}

// PermissionDenied reports that the microphone could not be acquired.
func PermissionDenied(message string, err error) *Error {
	return &Error{Kind: ErrKindPermissionDenied, Message: message, Err: err}
}

// KindOf returns the kind of a classified error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var classified *Error
	if errors.As(err, &classified) && classified != nil {
		return classified.Kind
	}
	return ""
}
