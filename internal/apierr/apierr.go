// Package apierr provides the client-side error taxonomy with HTTP status
// classification.
//
// Every failure crossing the API boundary is one of four types: AuthError
// (401, handled globally by forced logout), ValidationError (400/409, surfaced
// on the originating form), RequestError (any other non-2xx), and
// TransportError (the request never completed). Callers dispatch with
// errors.As or the Is* predicates.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError means the backend rejected the bearer credential. The session is
// cleared globally before this error reaches the caller; the caller only stops
// its own loading state.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication rejected"
	}
	return "authentication rejected: " + e.Message
}

// ValidationError means the backend rejected the request payload (bad
// credentials on register, duplicate email, vote on a closed poll). It is
// local to the form that caused it.
type ValidationError struct {
	StatusCode int
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d): %s", e.StatusCode, e.Message)
}

// RequestError is any other non-2xx response. The caller decides how to
// render it; 404 on a poll fetch means the poll was deleted.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
}

// TransportError means the request or stream never completed: dial failure,
// timeout, connection reset. Blocking for primary fetches, silently tolerated
// for the live-update channel.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FromResponse classifies a non-2xx status into the taxonomy. The message is
// whatever the backend carried in its error body, possibly empty.
func FromResponse(statusCode int, message string) error {
	switch {
	case statusCode == http.StatusUnauthorized:
		return &AuthError{Message: message}
	case statusCode == http.StatusBadRequest || statusCode == http.StatusConflict:
		return &ValidationError{StatusCode: statusCode, Message: message}
	default:
		return &RequestError{StatusCode: statusCode, Message: message}
	}
}

// IsAuth reports whether err is an authentication rejection.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsValidation reports whether err is a payload rejection.
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsNotFound reports whether err is a 404, which for poll fetches means the
// poll was deleted out from under the viewer.
func IsNotFound(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// UserMessage extracts the message a view should surface for err, falling
// back to a generic line when the backend sent nothing usable.
func UserMessage(err error, fallback string) string {
	var valErr *ValidationError
	if errors.As(err, &valErr) && valErr.Message != "" {
		return valErr.Message
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return fallback
}
