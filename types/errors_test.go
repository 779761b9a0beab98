package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		code        string
		retryable   bool
		callerFault bool
	}{
		{ErrValidation, false, true},
		{ErrInvalidEndpoint, false, true},
		{ErrAnchorUnavailable, true, false},
		{ErrNetworkError, true, false},
		{ErrMissingMerchantAccount, false, false},
		{ErrSigningError, false, false},
		{ErrConfigError, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := &Error{Code: tt.code, Message: "x"}
			assert.Equal(t, tt.retryable, e.Retryable())
			assert.Equal(t, tt.callerFault, e.CallerFault())
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	e := &Error{Code: ErrNetworkError, Message: "rpc call failed", Err: inner}

	assert.ErrorIs(t, e, inner)
	assert.Contains(t, e.Error(), "NETWORK_ERROR")
	assert.Contains(t, e.Error(), "connection refused")
}

func TestNewValidationError(t *testing.T) {
	e := NewValidationError("no %s provided", "reference")
	assert.Equal(t, ErrValidation, e.Code)
	assert.Equal(t, "no reference provided", e.Message)
}
