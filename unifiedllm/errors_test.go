package unifiedllm

import (
	"errors"
	"testing"
)

func TestErrorFromStatusCode(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"bad request", 400, false},
		{"unauthorized", 401, false},
		{"forbidden", 403, false},
		{"not found", 404, false},
		{"payload too large", 413, false},
		{"unprocessable", 422, false},
		{"rate limited", 429, true},
		{"server error", 500, true},
		{"bad gateway", 502, true},
		{"unavailable", 503, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ErrorFromStatusCode(tt.status, "boom", "test-provider", nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("status %d: expected retryable=%v", tt.status, tt.retryable)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &NetworkError{SDKError: SDKError{Message: "request failed", Cause: cause}}
	if !errors.Is(err, cause) {
		t.Error("expected cause reachable through Unwrap")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
	if IsRetryable(errors.New("arbitrary")) {
		t.Error("unknown errors are not retryable")
	}
	if !IsRetryable(&RequestTimeoutError{SDKError{Message: "slow"}}) {
		t.Error("timeouts are retryable")
	}
	if IsRetryable(&AbortError{SDKError{Message: "cancelled"}}) {
		t.Error("aborts are not retryable")
	}
}
