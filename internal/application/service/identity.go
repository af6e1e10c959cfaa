package service

import "context"

// Principal is the explicit session context of an authenticated caller.
type Principal struct {
	UserID      string
	DisplayName string
	Email       string
}

// TokenVerifier turns a bearer token into a Principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}
