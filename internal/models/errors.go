package models

import "errors"

// Sentinel errors shared across services. Callers match them with errors.Is;
// the web layer maps each one to an HTTP status.
var (
	ErrNoRecord       = errors.New("models: no matching record found")
	ErrNotAuthorised  = errors.New("models: not authorised to perform this action")
	ErrInvalidRequest = errors.New("models: invalid request")
	ErrValidation     = errors.New("models: validation failed")

	ErrInvalidCredentials = errors.New("models: invalid credentials")
	ErrDuplicateEmail     = errors.New("models: duplicate email")
	ErrAlreadyVerified    = errors.New("models: already verified")
	ErrInvalidOtp         = errors.New("models: invalid otp")
	ErrOtpExpired         = errors.New("models: otp has expired")
	ErrInvalidResetToken  = errors.New("models: invalid or expired reset token")

	ErrPaymentFailed = errors.New("models: payment failed")
)
