package auth

import "errors"

// Sentinel errors for the session authenticator. Callers compose Verify
// then Resolve; a failure at either stage must yield an unauthenticated
// response, never a partially-resolved identity.
var (
	ErrUnauthenticated = errors.New("no session token provided")
	ErrInvalidToken    = errors.New("session token is invalid")
	ErrExpiredToken    = errors.New("session token has expired")
	ErrUserNotFound    = errors.New("session user no longer exists")
)
