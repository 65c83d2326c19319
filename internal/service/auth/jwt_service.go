package auth

import (
	"context"
	"time"
)

// Claims holds the validated claims extracted from a token.
type Claims struct {
	// UserID identifies the authenticated caller. Tasks are owned by
	// this ID.
	UserID string

	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// JWTService issues and validates access tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for the user.
	GenerateToken(ctx context.Context, userID string) (string, error)

	// ValidateToken validates a token string and returns its claims.
	// Returns ErrExpiredToken or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}
