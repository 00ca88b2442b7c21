package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := &Error{Type: ErrorTypeServerError, Message: "feed request failed", Code: 503}
	assert.Equal(t, "server_error error (code 503): feed request failed", err.Error())

	wrapped := Wrap(ErrorTypeNetwork, io.ErrUnexpectedEOF, "reading %s", "body")
	assert.Equal(t, "network error: reading body: unexpected EOF", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, io.ErrUnexpectedEOF))
}

func TestIsTypeThroughWrapping(t *testing.T) {
	base := New(ErrorTypeIdentityMismatch, "cache belongs to %s", "alice/boardA")
	err := fmt.Errorf("failed to load cache: %w", base)

	assert.True(t, IsIdentityMismatch(err))
	assert.False(t, IsCacheCorrupted(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, ErrorTypeIdentityMismatch, TypeOf(err))

	assert.False(t, IsType(nil, ErrorTypeUnknown))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorType
	}{
		{404, ErrorTypeNotFound},
		{410, ErrorTypeNotFound},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{403, ErrorTypeUnknown},
		{429, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, FromStatusCode(tt.code))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeNotFound))
	assert.False(t, IsRetryable(ErrorTypeParsing))
	assert.False(t, IsRetryable(ErrorTypeCacheCorrupted))
}
