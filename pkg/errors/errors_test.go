package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewConflictError("slot no longer available")
	assert.Equal(t, "CONFLICT: slot no longer available", err.Error())

	wrapped := NewInternalError("failed to create appointment", stderrors.New("connection reset"))
	assert.Equal(t, "INTERNAL: failed to create appointment: connection reset", wrapped.Error())
}

func TestIsType(t *testing.T) {
	cfgErr := NewConfigurationError("unsupported frequency policy")
	wrapped := fmt.Errorf("planning session: %w", cfgErr)

	assert.True(t, IsType(wrapped, ErrorTypeConfiguration))
	assert.False(t, IsType(wrapped, ErrorTypeConflict))
	assert.False(t, IsType(nil, ErrorTypeConfiguration))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeInternal))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeUnavailable, TypeOf(NewUnavailableError("serialization failure", nil)))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewExternalError("provider failed", cause)
	assert.ErrorIs(t, err, cause)
}
