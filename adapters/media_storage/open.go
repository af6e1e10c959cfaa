package media_storage

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/config"
	"github.com/khoahotran/portgen/pkg/logger"
)

// OpenBlobStore builds the backend named by blob.backend.
func OpenBlobStore(ctx context.Context, cfg config.Config, app *firebase.App, log logger.Logger) (service.BlobStore, error) {
	switch cfg.Blob.Backend {
	case config.BackendFirebase:
		if app == nil {
			return nil, fmt.Errorf("firebase blob backend requires a Firebase app")
		}
		client, err := app.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Storage client: %w", err)
		}
		bucket, err := client.DefaultBucket()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve storage bucket: %w", err)
		}
		log.Info("Using Firebase Storage blob store.")
		return NewFirebaseStorage(bucket, cfg.Firebase.StorageBucket, log), nil

	case config.BackendCloudinary:
		return NewCloudinaryAdapter(cfg, log)

	case config.BackendMemory:
		log.Warn("Using in-memory blob store, uploads are lost on restart.")
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
}
