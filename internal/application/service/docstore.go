package service

import (
	"context"
	"time"
)

// Document is one stored record. Data never contains the id.
type Document struct {
	ID   string
	Data map[string]any
}

// Filter is a top-level field equality predicate.
type Filter struct {
	Field string
	Value any
}

// DocumentStore is the client over the hosted document database. All calls
// return apperror NotFound or Transient kinds. No call is atomic with another.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Query returns documents matching every filter; no filters lists the
	// whole collection.
	Query(ctx context.Context, collection string, filters ...Filter) ([]*Document, error)
	// Create stores data under id, or under a generated id when id is empty.
	Create(ctx context.Context, collection, id string, data map[string]any) (*Document, error)
	// Update replaces the named top-level fields only. Missing documents
	// yield NotFound.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes the document. Deleting a missing id is a no-op.
	Delete(ctx context.Context, collection, id string) error
}

// RenderCache holds serialized public projections.
type RenderCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, portfolioID string) ([]byte, error)
	// Version changes on every Invalidate. Read it before loading the
	// document the payload is built from.
	Version(ctx context.Context, portfolioID string) (int64, error)
	// Set stores payload only while the version still equals version and
	// reports whether it did.
	Set(ctx context.Context, portfolioID string, payload []byte, ttl time.Duration, version int64) (bool, error)
	Invalidate(ctx context.Context, portfolioID string) error
}
