package services

import "errors"

var (
	// ErrEmailTaken is returned when another user already has the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a token cannot be parsed or has expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned by AccessPolicy when the principal may not act.
	ErrForbidden = errors.New("forbidden")
)
