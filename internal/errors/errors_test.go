package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthError(t *testing.T) {
	err := NewAuthError("test auth error")

	assert.Equal(t, "authentication failed: test auth error", err.Error())
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.False(t, err.Is(NewAPIError(400, "test", "other error")), "should not match a different type")
	assert.Equal(t, "authentication failed: check your API key", NewAuthError("").Error())
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(400, "test-endpoint", "test API error")
	assert.Equal(t, "API error [400] at test-endpoint: test API error", err.Error())

	noStatus := NewAPIError(0, "ep", "boom")
	assert.Equal(t, "API error at ep: boom", noStatus.Error())
}

func TestNewAPIErrorWithBody_Truncates(t *testing.T) {
	err := NewAPIErrorWithBody(500, "ep", "failed", strings.Repeat("x", 5000))
	assert.Len(t, err.Body, 4096)
	assert.Equal(t, 500, err.StatusCode)
	assert.Equal(t, "ep", err.Endpoint)
}

func TestParseError_Is(t *testing.T) {
	err := NewParseError("bad json", "agi_settings")
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, "parse error at agi_settings: bad json", err.Error())
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"canceled", context.Canceled, "canceled"},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), "timeout"},
		{"timeout type", NewTimeoutError("slow"), "timeout"},
		{"auth", NewAuthError("bad key"), "auth"},
		{"no key", ErrNoAPIKey, "auth"},
		{"401", NewAPIError(401, "ep", "unauthorized"), "auth"},
		{"quota type", NewUsageLimitError("daily"), "quota"},
		{"429", NewAPIError(429, "ep", "slow down"), "quota"},
		{"blocked", NewBlockedError("SAFETY"), "blocked"},
		{"network", NewNetworkError("generate", "ep", errors.New("refused")), "network"},
		{"no content", ErrNoContent, "response"},
		{"malformed", NewParseError("no candidates", "candidates"), "response"},
		{"panic", fmt.Errorf("%w: boom", ErrGatewayPanic), "panic"},
		{"500", NewAPIError(500, "ep", "oops"), "api"},
		{"other", errors.New("mystery"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestGetHTTPStatus_Wrapped(t *testing.T) {
	err := fmt.Errorf("generate: %w", NewAPIError(503, "ep", "unavailable"))
	assert.Equal(t, 503, GetHTTPStatus(err))
	assert.Zero(t, GetHTTPStatus(errors.New("plain")))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("temperature", 3.5, "must be between 0 and 2")
	assert.Equal(t, "invalid temperature 3.5: must be between 0 and 2", err.Error())
}
