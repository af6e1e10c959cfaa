package identity

import (
	"context"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/auth"
)

// JWTVerifier accepts tokens minted by pkg/auth.
type JWTVerifier struct {
	jwt *auth.JWTService
}

func NewJWTVerifier(jwt *auth.JWTService) *JWTVerifier {
	return &JWTVerifier{jwt: jwt}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*service.Principal, error) {
	if token == "" {
		return nil, apperror.NewUnauthorized("missing authorization token", nil)
	}
	claims, err := v.jwt.ValidateToken(token)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid token", err)
	}
	return &service.Principal{
		UserID:      claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
	}, nil
}
