package service

import "errors"

var (
	// ErrInvalidInput wraps request validation failures
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned for an unknown username or wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned when a user acts on something they do not own
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable is returned while the store is failing and the breaker is open
	ErrUnavailable = errors.New("service temporarily unavailable")
)
