package translator

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyCallErrorKeepsKind(t *testing.T) {
	err := NewCallError(ErrorKindRateLimited, errors.New("something opaque"))
	if got := Classify(err); got != ErrorKindRateLimited {
		t.Errorf("Classify() = %s, want %s", got, ErrorKindRateLimited)
	}

	wrapped := fmt.Errorf("translate failed: %w", err)
	if got := Classify(wrapped); got != ErrorKindRateLimited {
		t.Errorf("Classify(wrapped) = %s, want %s", got, ErrorKindRateLimited)
	}
}

func TestClassifyFromMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"http 429", errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED"), ErrorKindRateLimited},
		{"quota", errors.New("quota exceeded for requests per minute"), ErrorKindRateLimited},
		{"http 503", errors.New("503 Service Unavailable"), ErrorKindServiceUnavailable},
		{"overloaded", errors.New("anthropic: overloaded_error"), ErrorKindServiceUnavailable},
		{"timeout", errors.New("request timeout after 2m"), ErrorKindTimeout},
		{"deadline", context.DeadlineExceeded, ErrorKindTimeout},
		{"http 401", errors.New("401 Unauthorized"), ErrorKindAuthFailed},
		{"bad key", errors.New("API key not valid"), ErrorKindAuthFailed},
		{"http 400", errors.New("400 INVALID_ARGUMENT: bad request"), ErrorKindInvalidInput},
		{"opaque", errors.New("connection thing happened"), ErrorKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	transient := []ErrorKind{ErrorKindRateLimited, ErrorKindServiceUnavailable, ErrorKindTimeout}
	for _, kind := range transient {
		if !IsTransient(NewCallError(kind, errors.New("x"))) {
			t.Errorf("IsTransient(%s) = false, want true", kind)
		}
	}

	permanent := []ErrorKind{ErrorKindAuthFailed, ErrorKindInvalidInput, ErrorKindUnknown}
	for _, kind := range permanent {
		if IsTransient(NewCallError(kind, errors.New("x"))) {
			t.Errorf("IsTransient(%s) = true, want false", kind)
		}
	}
}
