package service

import "errors"

var (
	ErrInvalidFormat        = errors.New("invalid invite code format")
	ErrCodeNotFound         = errors.New("invite code not found")
	ErrCodeAlreadyUsed      = errors.New("invite code has already been used")
	ErrMissingFields        = errors.New("code and newUserUid are required")
	ErrSelfRedemption       = errors.New("cannot redeem your own invite code")
	ErrAlreadySubscribed    = errors.New("user already has a subscription")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrStore                = errors.New("data store error")
	ErrUnknownAction        = errors.New("invalid action")
	ErrMethodNotAllowed     = errors.New("method not allowed")
	ErrCodeSpaceExhausted   = errors.New("could not reserve a unique invite code")
)

// Error codes returned to API clients.
const (
	CodeInvalidFormat        = "INVALID_FORMAT"
	CodeCodeNotFound         = "CODE_NOT_FOUND"
	CodeCodeAlreadyUsed      = "CODE_ALREADY_USED"
	CodeMissingFields        = "MISSING_FIELDS"
	CodeSelfRedemption       = "SELF_REDEMPTION"
	CodeAlreadySubscribed    = "ALREADY_SUBSCRIBED"
	CodeSubscriptionNotFound = "SUBSCRIPTION_NOT_FOUND"
	CodeStoreError           = "STORE_ERROR"
	CodeUnknownAction        = "UNKNOWN_ACTION"
	CodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	CodeInternal             = "INTERNAL_ERROR"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidFormat, CodeInvalidFormat},
	{ErrCodeNotFound, CodeCodeNotFound},
	{ErrCodeAlreadyUsed, CodeCodeAlreadyUsed},
	{ErrMissingFields, CodeMissingFields},
	{ErrSelfRedemption, CodeSelfRedemption},
	{ErrAlreadySubscribed, CodeAlreadySubscribed},
	{ErrSubscriptionNotFound, CodeSubscriptionNotFound},
	{ErrStore, CodeStoreError},
	{ErrCodeSpaceExhausted, CodeStoreError},
	{ErrUnknownAction, CodeUnknownAction},
	{ErrMethodNotAllowed, CodeMethodNotAllowed},
}

// ErrorCode maps err to its API error code; unrecognized errors are INTERNAL_ERROR.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// IsBusinessError reports whether err is a rule violation the caller can fix (HTTP 400).
func IsBusinessError(err error) bool {
	switch ErrorCode(err) {
	case CodeStoreError, CodeInternal, CodeMethodNotAllowed:
		return false
	}
	return true
}
