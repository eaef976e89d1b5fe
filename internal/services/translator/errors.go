package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a translator call failure. The worker's retry
// behavior depends entirely on this classification: transient kinds are
// retried in place, non-transient kinds fail the job immediately.
type ErrorKind string

const (
	ErrorKindRateLimited        ErrorKind = "rate_limited"
	ErrorKindServiceUnavailable ErrorKind = "service_unavailable"
	ErrorKindTimeout            ErrorKind = "timeout"
	ErrorKindAuthFailed         ErrorKind = "auth_failed"
	ErrorKindInvalidInput       ErrorKind = "invalid_input"
	ErrorKindUnknown            ErrorKind = "unknown"
)

// CallError wraps a provider error with its classified kind.
type CallError struct {
	Kind ErrorKind
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("translator call failed (%s): %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// NewCallError wraps err with an explicit kind.
func NewCallError(kind ErrorKind, err error) *CallError {
	return &CallError{Kind: kind, Err: err}
}

// Classify returns the error kind for a translator failure. Wrapped
// CallErrors keep their explicit kind; anything else is classified
// from the provider's error text.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindUnknown
	}

	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "resource_exhausted"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "quota"):
		return ErrorKindRateLimited
	case strings.Contains(msg, "503"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "overloaded"),
		strings.Contains(msg, "500"),
		strings.Contains(msg, "internal error"):
		return ErrorKindServiceUnavailable
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"):
		return ErrorKindTimeout
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "403"),
		strings.Contains(msg, "api key"),
		strings.Contains(msg, "unauthenticated"),
		strings.Contains(msg, "permission denied"):
		return ErrorKindAuthFailed
	case strings.Contains(msg, "400"),
		strings.Contains(msg, "invalid_argument"),
		strings.Contains(msg, "invalid request"):
		return ErrorKindInvalidInput
	default:
		return ErrorKindUnknown
	}
}

// IsTransient reports whether the failure is expected to resolve on
// retry. Rate limits, server errors and timeouts are transient; auth
// failures and malformed input are not, and neither are unclassified
// errors (retrying an unknown failure blindly wastes the job budget).
func IsTransient(err error) bool {
	switch Classify(err) {
	case ErrorKindRateLimited, ErrorKindServiceUnavailable, ErrorKindTimeout:
		return true
	default:
		return false
	}
}
