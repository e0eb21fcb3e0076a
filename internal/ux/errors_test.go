package ux

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/felixgeelhaar/memorymap/internal/errors"
)

func TestErrorWithSuggestion(t *testing.T) {
	assert.Nil(t, NewErrorWithSuggestion(nil, "ignored"))

	base := errors.New("test error")
	err := NewErrorWithSuggestion(base, "do this")
	assert.Equal(t, "test error\n\n💡 Suggestion: do this", err.Error())
	assert.ErrorIs(t, err, base)

	assert.Equal(t, "test error", NewErrorWithSuggestion(base, "").Error())
}

func TestEnhanceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantSuggestion string
	}{
		{"connection refused", errors.New("dial tcp 127.0.0.1:8000: connect: connection refused"), "--api-url"},
		{"unknown host", errors.New("dial tcp: lookup api.invalid: no such host"), "backend is running"},
		{"timeout", errors.New("context deadline exceeded"), "api.timeout"},
		{"session file permission denied", errors.New("open /home/ada/.memorymap/session.json: permission denied"), "--session-file"},
		{"aborted prompt", errors.New("prompt failed: user aborted"), "flags"},
		{"backend status error", apperrors.New(apperrors.ErrCodeAPIStatus, "Not found."), "--log-level debug"},
		{"wrapped status error", fmt.Errorf("show: %w", apperrors.New(apperrors.ErrCodeAPIStatus, "Not found.")), "--log-level debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enhanced := EnhanceError(tt.err)
			require.Error(t, enhanced)
			assert.Contains(t, enhanced.Error(), tt.err.Error())
			assert.Contains(t, enhanced.Error(), tt.wantSuggestion)
			assert.ErrorIs(t, enhanced, tt.err)
		})
	}
}

func TestEnhanceError_Unchanged(t *testing.T) {
	assert.Nil(t, EnhanceError(nil))

	plain := errors.New("some random error")
	assert.Same(t, plain, EnhanceError(plain))

	coded := apperrors.NewUnreachableError("http://localhost:8000", errors.New("connection refused"))
	assert.Equal(t, error(coded), EnhanceError(coded), "errors with their own suggestions are kept")

	hinted := NewErrorWithSuggestion(errors.New("base error"), "first suggestion")
	assert.Equal(t, hinted, EnhanceError(hinted))
}
