package persistence

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
)

type firestoreStore struct {
	client *firestore.Client
	logger logger.Logger
}

func NewFirestoreStore(client *firestore.Client, log logger.Logger) service.DocumentStore {
	return &firestoreStore{client: client, logger: log}
}

func (s *firestoreStore) Get(ctx context.Context, collection, id string) (*service.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperror.NewNotFound(collection, id)
		}
		s.logger.Error("Firestore get failed", err, zap.String("collection", collection), zap.String("id", id))
		return nil, apperror.NewTransient("failed to get document", err)
	}
	return &service.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *firestoreStore) Query(ctx context.Context, collection string, filters ...service.Filter) ([]*service.Document, error) {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	docs := make([]*service.Document, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			s.logger.Error("Firestore query failed", err, zap.String("collection", collection))
			return nil, apperror.NewTransient("failed to query documents", err)
		}
		docs = append(docs, &service.Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

func (s *firestoreStore) Create(ctx context.Context, collection, id string, data map[string]any) (*service.Document, error) {
	ref := s.client.Collection(collection).NewDoc()
	if id != "" {
		ref = s.client.Collection(collection).Doc(id)
	}
	if _, err := ref.Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, apperror.NewConflict(collection, "document '"+ref.ID+"' already exists")
		}
		s.logger.Error("Firestore create failed", err, zap.String("collection", collection), zap.String("id", ref.ID))
		return nil, apperror.NewTransient("failed to create document", err)
	}
	return &service.Document{ID: ref.ID, Data: data}, nil
}

func (s *firestoreStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		// FieldPath keeps keys containing dots from being read as nested paths.
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	if len(updates) == 0 {
		return nil
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return apperror.NewNotFound(collection, id)
		}
		s.logger.Error("Firestore update failed", err, zap.String("collection", collection), zap.String("id", id))
		return apperror.NewTransient("failed to update document", err)
	}
	return nil
}

func (s *firestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		s.logger.Error("Firestore delete failed", err, zap.String("collection", collection), zap.String("id", id))
		return apperror.NewTransient("failed to delete document", err)
	}
	return nil
}
