package persistence

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/config"
	"github.com/khoahotran/portgen/pkg/logger"
)

// OpenDocumentStore connects the backend named by store.backend. The returned
// func releases the connection. app is only used for firestore.
func OpenDocumentStore(ctx context.Context, cfg config.Config, app *firebase.App, log logger.Logger) (service.DocumentStore, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		if app == nil {
			return nil, nil, fmt.Errorf("firestore backend requires a Firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Firestore client: %w", err)
		}
		log.Info("Using Firestore document store.")
		return NewFirestoreStore(client, log), func() { _ = client.Close() }, nil

	case config.BackendMongo:
		db, err := NewMongoDatabase(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return NewMongoStore(db, log), func() { _ = db.Client().Disconnect(context.Background()) }, nil

	case config.BackendPostgres:
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStore(pool, log), pool.Close, nil

	case config.BackendMemory:
		log.Warn("Using in-memory document store, data is lost on restart.")
		return NewMemoryStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
