package identity

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
)

// idTokenVerifier is the part of *auth.Client used here.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type FirebaseVerifier struct {
	client idTokenVerifier
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*service.Principal, error) {
	if token == "" {
		return nil, apperror.NewUnauthorized("missing authorization token", nil)
	}
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid token", err)
	}
	return principalFromToken(decoded), nil
}

func principalFromToken(t *auth.Token) *service.Principal {
	p := &service.Principal{UserID: t.UID}
	if name, ok := t.Claims["name"].(string); ok {
		p.DisplayName = name
	}
	if email, ok := t.Claims["email"].(string); ok {
		p.Email = email
	}
	return p
}
