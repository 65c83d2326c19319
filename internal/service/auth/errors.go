// Package auth provides JWT-based authentication for the API surface.
package auth

import "errors"

// Authentication errors returned by token validation.
var (
	// ErrInvalidToken indicates the token is malformed, has an invalid
	// signature, or otherwise fails validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token has expired.
	ErrExpiredToken = errors.New("token expired")

	// ErrTokenNotYetValid indicates the token's NotBefore claim is in
	// the future.
	ErrTokenNotYetValid = errors.New("token not yet valid")
)
