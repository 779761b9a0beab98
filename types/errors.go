package types

import "fmt"

// Error codes surfaced to callers. The boundary maps VALIDATION_ERROR and
// INVALID_ENDPOINT to 4xx statuses; everything else is 5xx, with
// Retryable distinguishing transient infrastructure failures from fatal
// misconfiguration.
const (
	ErrValidation             = "VALIDATION_ERROR"
	ErrInvalidEndpoint        = "INVALID_ENDPOINT"
	ErrMissingMerchantAccount = "MISSING_MERCHANT_ACCOUNT"
	ErrAnchorUnavailable      = "ANCHOR_UNAVAILABLE"
	ErrNetworkError           = "NETWORK_ERROR"
	ErrSigningError           = "SIGNING_ERROR"
	ErrConfigError            = "CONFIG_ERROR"
)

// Error is the typed error returned across package boundaries.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same call can succeed without
// operator intervention. Missing merchant accounts and signing failures
// are configuration problems and are deliberately excluded.
func (e *Error) Retryable() bool {
	switch e.Code {
	case ErrAnchorUnavailable, ErrNetworkError:
		return true
	}
	return false
}

// CallerFault reports whether the error is the caller's (4xx-equivalent).
func (e *Error) CallerFault() bool {
	return e.Code == ErrValidation || e.Code == ErrInvalidEndpoint
}

// NewValidationError builds a caller-fault error with a human-readable
// reason naming the offending field.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Code: ErrValidation, Message: fmt.Sprintf(format, args...)}
}
