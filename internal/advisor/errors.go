package advisor

import (
	"errors"
	"fmt"
)

// ErrorKind classifies advisory failures. Transport and schema failures
// are recovered locally by the retry controller; only the terminal kinds
// cross the request-handler boundary.
type ErrorKind string

const (
	KindRateLimited        ErrorKind = "rate_limited"
	KindInvalidRequest     ErrorKind = "invalid_request"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindUpstreamTransport  ErrorKind = "upstream_transport"
	KindSchemaViolation    ErrorKind = "schema_violation"
	KindGenerationFailed   ErrorKind = "generation_failed"
)

// Error is a typed advisory failure
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a typed advisory error wrapping an optional cause
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the error kind, defaulting to GenerationFailed for
// unclassified errors so no untyped failure reaches the caller.
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindGenerationFailed
}

var (
	// ErrNoUserMessage is returned when the request carries no user-role message
	ErrNoUserMessage = NewError(KindInvalidRequest, "request must contain at least one user message", nil)

	// ErrEmptyMessages is returned when the message list is missing or empty
	ErrEmptyMessages = NewError(KindInvalidRequest, "messages must not be empty", nil)

	// ErrNotConfigured is returned when the completion provider credential is absent
	ErrNotConfigured = NewError(KindServiceUnavailable, "completion provider is not configured", nil)
)

// ValidateRequest checks the inbound request shape: a non-empty message
// list containing at least one user-role message.
func ValidateRequest(req *AdvisoryRequest) error {
	if req == nil || len(req.Messages) == 0 {
		return ErrEmptyMessages
	}
	if _, ok := req.Question(); !ok {
		return ErrNoUserMessage
	}
	return nil
}
