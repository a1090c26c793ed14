package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyKinds(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantKind      Kind
		wantRetryable bool
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout, true},
		{"timeout message", errors.New("request timed out"), KindTimeout, true},
		{"connection refused", errors.New("dial tcp: connection refused"), KindNetwork, true},
		{"dns failure", errors.New("lookup: no such host"), KindNetwork, true},
		{"password protected", errors.New("fitz: document needs password"), KindPermission, false},
		{"access denied", errors.New("access denied by source"), KindPermission, false},
		{"unsupported format", errors.New("unsupported document format"), KindUnsupported, false},
		{"corrupt document", errors.New("cannot open document"), KindCorrupted, false},
		{"malformed xref", errors.New("malformed xref table"), KindCorrupted, false},
		{"anything else", errors.New("weird failure"), KindUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantRetryable, got.Retryable)
			assert.NotEmpty(t, got.UserMessage)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	orig := NewPermissionError("denied", nil)
	got := Classify(fmt.Errorf("open failed: %w", orig))
	assert.Same(t, orig, got)
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("boom")
	err := NewNetworkError("fetch failed", cause)

	assert.Contains(t, err.Error(), "network")
	assert.Contains(t, err.Error(), "fetch failed")
	assert.Contains(t, err.Error(), "boom")
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestIsKindAndIsRetryable(t *testing.T) {
	err := NewCorruptedError("bad xref", nil)
	wrapped := fmt.Errorf("load: %w", err)

	assert.True(t, IsKind(wrapped, KindCorrupted))
	assert.False(t, IsKind(wrapped, KindNetwork))
	assert.False(t, IsRetryable(wrapped))
	assert.True(t, IsRetryable(NewTimeoutError("slow", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
}
