package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNothingSelected is reported when a bulk action is requested without ids.
	ErrNothingSelected = errors.New("nothing selected")

	// ErrCancelled is reported when the user declines a confirmation.
	ErrCancelled = errors.New("cancelled by user")
)

// ValidationError is a field-level failure detected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// APIError is a non-2xx answer from an entry API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Detail
}

// NetworkError wraps a transport failure (connection refused, timeout, ...).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NotFoundError is a 404-class answer for an id that no longer exists.
type NotFoundError struct {
	Resource string
	ID       int64
	Detail   string
}

func (e *NotFoundError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.ID != 0 {
		return fmt.Sprintf("%s with id %d not found", e.Resource, e.ID)
	}
	return e.Resource + " not found"
}

// CapabilityMissingError is returned when an entry API does not support a
// requested optional verb.
type CapabilityMissingError struct {
	Capability string
}

func (e *CapabilityMissingError) Error() string {
	return e.Capability + " is not supported for this table"
}

// Kind classifies err into one of the log error types.
func Kind(err error) string {
	var (
		verr *ValidationError
		nerr *NetworkError
		ferr *NotFoundError
		cerr *CapabilityMissingError
		aerr *APIError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "validation_error"
	case errors.As(err, &ferr):
		return "not_found_error"
	case errors.As(err, &cerr):
		return "capability_missing"
	case errors.As(err, &nerr), errors.Is(err, context.DeadlineExceeded):
		return "network_error"
	case errors.As(err, &aerr):
		return "api_error"
	default:
		return "internal_error"
	}
}

// Message normalizes any error into a human-readable sentence suitable for
// a notification.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var (
		verr *ValidationError
		nerr *NetworkError
		aerr *APIError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to answer"
	case errors.Is(err, context.Canceled):
		return "The request was cancelled"
	case errors.As(err, &nerr):
		return "Could not reach the server: " + nerr.Err.Error()
	case errors.As(err, &aerr):
		return capitalize(aerr.Error())
	default:
		return capitalize(err.Error())
	}
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown error"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
