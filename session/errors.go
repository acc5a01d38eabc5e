package session

import "errors"

// Common errors returned by the session store.
var (
	// ErrEmptyToken is returned when Set is called without a token.
	ErrEmptyToken = errors.New("session token is empty")

	// ErrNoBackend is returned when a store is opened without persistence.
	ErrNoBackend = errors.New("session backend is required")

	// ErrMalformedToken is returned when a token cannot be decoded as a JWT.
	ErrMalformedToken = errors.New("session token is not a valid JWT")
)
