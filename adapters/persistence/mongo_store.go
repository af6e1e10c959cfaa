package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
)

type mongoStore struct {
	db     *mongo.Database
	logger logger.Logger
}

// NewMongoStore maps collections one to one onto Mongo collections, with
// the document id kept in _id.
func NewMongoStore(db *mongo.Database, log logger.Logger) service.DocumentStore {
	return &mongoStore{db: db, logger: log}
}

func (s *mongoStore) Get(ctx context.Context, collection, id string) (*service.Document, error) {
	var raw bson.Raw
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NewNotFound(collection, id)
		}
		s.logger.Error("Mongo find failed", err, zap.String("collection", collection), zap.String("id", id))
		return nil, apperror.NewTransient("failed to get document", err)
	}
	return rawToDocument(raw)
}

func (s *mongoStore) Query(ctx context.Context, collection string, filters ...service.Filter) ([]*service.Document, error) {
	filter := bson.D{}
	for _, f := range filters {
		filter = append(filter, bson.E{Key: f.Field, Value: f.Value})
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		s.logger.Error("Mongo query failed", err, zap.String("collection", collection))
		return nil, apperror.NewTransient("failed to query documents", err)
	}
	defer cursor.Close(ctx)

	docs := make([]*service.Document, 0)
	for cursor.Next(ctx) {
		doc, err := rawToDocument(cursor.Current)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, apperror.NewTransient("failed to iterate documents", err)
	}
	return docs, nil
}

func (s *mongoStore) Create(ctx context.Context, collection, id string, data map[string]any) (*service.Document, error) {
	if id == "" {
		id = uuid.NewString()
	}
	record := bson.M{"_id": id}
	for k, v := range data {
		if k == "_id" {
			continue
		}
		record[k] = v
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperror.NewConflict(collection, "document '"+id+"' already exists")
		}
		s.logger.Error("Mongo insert failed", err, zap.String("collection", collection), zap.String("id", id))
		return nil, apperror.NewTransient("failed to create document", err)
	}
	return &service.Document{ID: id, Data: data}, nil
}

func (s *mongoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		s.logger.Error("Mongo update failed", err, zap.String("collection", collection), zap.String("id", id))
		return apperror.NewTransient("failed to update document", err)
	}
	if res.MatchedCount == 0 {
		return apperror.NewNotFound(collection, id)
	}
	return nil
}

func (s *mongoStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		s.logger.Error("Mongo delete failed", err, zap.String("collection", collection), zap.String("id", id))
		return apperror.NewTransient("failed to delete document", err)
	}
	return nil
}

// rawToDocument goes through relaxed extended JSON so nested values come
// back as plain maps and slices instead of bson.D.
func rawToDocument(raw bson.Raw) (*service.Document, error) {
	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, apperror.NewMalformed("stored document cannot be decoded", err)
	}
	data := make(map[string]any)
	if err := json.Unmarshal(ext, &data); err != nil {
		return nil, apperror.NewMalformed("stored document cannot be decoded", err)
	}
	id, _ := data["_id"].(string)
	delete(data, "_id")
	return &service.Document{ID: id, Data: data}, nil
}
