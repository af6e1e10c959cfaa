package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/config"
	"github.com/khoahotran/portgen/pkg/auth"
)

// NewVerifier picks the token verifier for auth.provider.
func NewVerifier(ctx context.Context, cfg config.Config, app *firebase.App) (service.TokenVerifier, error) {
	switch cfg.Auth.Provider {
	case config.AuthFirebase:
		if app == nil {
			return nil, fmt.Errorf("firebase auth requires a Firebase app")
		}
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firebase Auth client: %w", err)
		}
		return NewFirebaseVerifier(client), nil
	case config.AuthJWT:
		return NewJWTVerifier(auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)), nil
	}
	return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
}
