package domain

import "errors"

// Account and token errors
var (
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("access denied")
	ErrUserNotFound       = errors.New("user not found")
)

// Session lifecycle errors
var (
	ErrSessionNotFound  = errors.New("test session not found")
	ErrSessionCompleted = errors.New("session already completed")
	ErrInvalidSection   = errors.New("unknown test section")
)

// Payment promotion errors
var (
	ErrRegistrationExpired       = errors.New("registration expired or invalid")
	ErrPaymentAmountInvalid      = errors.New("payment amount outside acceptable range")
	ErrUnsupportedCurrency       = errors.New("unsupported payment currency")
	ErrInvalidPaymentReference   = errors.New("invalid payment reference")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
)

// PaymentRequiredError gates session access until payment completes. It
// carries the current payment status so clients can tell a pending charge
// apart from a failed one.
type PaymentRequiredError struct {
	PaymentStatus PaymentState
}

func (e *PaymentRequiredError) Error() string {
	return "payment required: payment status is " + string(e.PaymentStatus)
}
