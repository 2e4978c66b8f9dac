package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown email, inactive account and
	// password mismatch. Callers must not distinguish between them.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrAccountDisabled means the credentials were correct but the email
	// address has not been verified yet.
	ErrAccountDisabled = errors.New("auth: account disabled")

	// ErrDuplicateEmail is returned when registering an email that already
	// has an account, whether detected by pre-check or by the store's
	// uniqueness constraint.
	ErrDuplicateEmail = errors.New("auth: email already registered")

	// ErrInvalidToken covers malformed, badly signed, expired and
	// wrong-kind tokens.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrNotFound is returned for account lookups outside the login path.
	ErrNotFound = errors.New("auth: not found")

	// ErrInvalidInput marks caller-correctable validation failures.
	ErrInvalidInput = errors.New("auth: invalid input")
)
