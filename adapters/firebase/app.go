package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/khoahotran/portgen/internal/config"
	"github.com/khoahotran/portgen/pkg/logger"
)

// NewApp initializes the Admin SDK once; Firestore, Storage and Auth clients
// are all derived from the returned app.
func NewApp(ctx context.Context, cfg config.Config, log logger.Logger) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.Firebase.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.Firebase.ProjectID,
		StorageBucket: cfg.Firebase.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	log.Info("Initialize Firebase app successfully.")
	return app, nil
}
