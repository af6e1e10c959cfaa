package persistence

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
)

type Op string

const (
	OpGet    Op = "get"
	OpQuery  Op = "query"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type failure struct {
	op         Op
	collection string
	err        error
}

// MemoryStore is an in-process DocumentStore. Values are stored as JSON so
// callers never share maps with the store.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string]map[string][]byte
	failures []failure
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

// FailNext makes the next op on collection return err.
func (s *MemoryStore) FailNext(op Op, collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{op: op, collection: collection, err: err})
}

func (s *MemoryStore) takeFailure(op Op, collection string) error {
	for i, f := range s.failures {
		if f.op == op && f.collection == collection {
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			return f.err
		}
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (*service.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpGet, collection); err != nil {
		return nil, err
	}
	raw, ok := s.data[collection][id]
	if !ok {
		return nil, apperror.NewNotFound(collection, id)
	}
	return decodeDocument(id, raw)
}

func (s *MemoryStore) Query(_ context.Context, collection string, filters ...service.Filter) ([]*service.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpQuery, collection); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(s.data[collection]))
	for id := range s.data[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]*service.Document, 0)
	for _, id := range ids {
		doc, err := decodeDocument(id, s.data[collection][id])
		if err != nil {
			return nil, err
		}
		if matches(doc.Data, filters) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (s *MemoryStore) Create(_ context.Context, collection, id string, data map[string]any) (*service.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpCreate, collection); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := s.data[collection][id]; exists {
		return nil, apperror.NewConflict(collection, "document '"+id+"' already exists")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, apperror.NewInternal("failed to encode document", err)
	}
	if s.data[collection] == nil {
		s.data[collection] = make(map[string][]byte)
	}
	s.data[collection][id] = raw
	return decodeDocument(id, raw)
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpUpdate, collection); err != nil {
		return err
	}
	raw, ok := s.data[collection][id]
	if !ok {
		return apperror.NewNotFound(collection, id)
	}
	doc, err := decodeDocument(id, raw)
	if err != nil {
		return err
	}
	for k, v := range fields {
		doc.Data[k] = v
	}
	merged, err := json.Marshal(doc.Data)
	if err != nil {
		return apperror.NewInternal("failed to encode document", err)
	}
	s.data[collection][id] = merged
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpDelete, collection); err != nil {
		return err
	}
	delete(s.data[collection], id)
	return nil
}

func decodeDocument(id string, raw []byte) (*service.Document, error) {
	data := make(map[string]any)
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, apperror.NewInternal("failed to decode document", err)
	}
	return &service.Document{ID: id, Data: data}, nil
}

func matches(data map[string]any, filters []service.Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok || !sameValue(v, f.Value) {
			return false
		}
	}
	return true
}

// sameValue compares a decoded JSON value with a filter value by routing the
// filter value through JSON too.
func sameValue(stored, want any) bool {
	raw, err := json.Marshal(want)
	if err != nil {
		return false
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return false
	}
	return reflect.DeepEqual(stored, normalized)
}
