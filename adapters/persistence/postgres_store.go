package persistence

import (
	"context"
	"encoding/json"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL DEFAULT '{}'::jsonb,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_data_gin ON documents USING GIN (data jsonb_path_ops);`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type postgresStore struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

// NewPostgresStore keeps every collection in one JSONB table keyed by
// (collection, id).
func NewPostgresStore(db *pgxpool.Pool, log logger.Logger) service.DocumentStore {
	return &postgresStore{db: db, logger: log}
}

// EnsureDocumentsSchema creates the documents table when it does not exist.
func EnsureDocumentsSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, documentsSchema); err != nil {
		return apperror.NewInternal("failed to create documents schema", err)
	}
	return nil
}

func (s *postgresStore) Get(ctx context.Context, collection, id string) (*service.Document, error) {
	query, args, err := psql.Select("id", "data").
		From("documents").
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build get query", err)
	}

	doc, err := scanDocument(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound(collection, id)
		}
		s.logger.Error("Postgres get failed", err, zap.String("collection", collection), zap.String("id", id))
		return nil, apperror.NewTransient("failed to get document", err)
	}
	return doc, nil
}

func (s *postgresStore) Query(ctx context.Context, collection string, filters ...service.Filter) ([]*service.Document, error) {
	builder := psql.Select("id", "data").
		From("documents").
		Where(sq.Eq{"collection": collection}).
		OrderBy("id ASC")

	for _, f := range filters {
		contains, err := json.Marshal(map[string]any{f.Field: f.Value})
		if err != nil {
			return nil, apperror.NewInvalidInput("filter value cannot be encoded", err)
		}
		builder = builder.Where("data @> ?::jsonb", string(contains))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build query", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error("Postgres query failed", err, zap.String("collection", collection))
		return nil, apperror.NewTransient("failed to query documents", err)
	}
	defer rows.Close()

	docs := make([]*service.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, apperror.NewTransient("failed to scan document row", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewTransient("failed to iterate documents", err)
	}
	return docs, nil
}

func (s *postgresStore) Create(ctx context.Context, collection, id string, data map[string]any) (*service.Document, error) {
	if id == "" {
		id = uuid.NewString()
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, apperror.NewInvalidInput("document cannot be encoded", err)
	}

	query, args, err := psql.Insert("documents").
		Columns("collection", "id", "data").
		Values(collection, id, string(payload)).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build insert query", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperror.NewConflict(collection, "document '"+id+"' already exists")
		}
		s.logger.Error("Postgres insert failed", err, zap.String("collection", collection), zap.String("id", id))
		return nil, apperror.NewTransient("failed to create document", err)
	}
	return &service.Document{ID: id, Data: data}, nil
}

func (s *postgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return apperror.NewInvalidInput("update fields cannot be encoded", err)
	}

	// || on jsonb replaces top-level keys and leaves the rest alone.
	query, args, err := psql.Update("documents").
		Set("data", sq.Expr("data || ?::jsonb", string(patch))).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build update query", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		s.logger.Error("Postgres update failed", err, zap.String("collection", collection), zap.String("id", id))
		return apperror.NewTransient("failed to update document", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(collection, id)
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, collection, id string) error {
	query, args, err := psql.Delete("documents").
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build delete query", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		s.logger.Error("Postgres delete failed", err, zap.String("collection", collection), zap.String("id", id))
		return apperror.NewTransient("failed to delete document", err)
	}
	return nil
}

func scanDocument(row pgx.Row) (*service.Document, error) {
	var id string
	var raw []byte
	if err := row.Scan(&id, &raw); err != nil {
		return nil, err
	}
	data := make(map[string]any)
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, apperror.NewMalformed("stored document is not a JSON object", err)
	}
	return &service.Document{ID: id, Data: data}, nil
}
