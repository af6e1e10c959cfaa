package media_storage

import (
	"context"
	"io"
	"sync"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
)

// MemoryStore keeps blobs in process. URLs use the memory:// scheme.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    []error
	deleted []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// FailNext makes the next Upload fail with err after reading its body.
func (s *MemoryStore) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = append(s.fail, err)
}

func (s *MemoryStore) Upload(_ context.Context, in service.UploadInput) (*service.Asset, error) {
	if in.Key == "" || in.Body == nil {
		return nil, apperror.NewInvalidInput("upload requires a key and a body", nil)
	}
	pr := newProgressReader(in.Body, in.Size, in.OnProgress)
	body, err := io.ReadAll(pr)
	if err != nil {
		return nil, apperror.NewTransient("failed to read upload body", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fail) > 0 {
		err := s.fail[0]
		s.fail = s.fail[1:]
		return nil, err
	}
	s.objects[in.Key] = body
	pr.done()
	return &service.Asset{URL: "memory://" + in.Key, Key: in.Key}, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return apperror.NewNotFound("asset", key)
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// Object returns the stored bytes for key.
func (s *MemoryStore) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	return b, ok
}

func (s *MemoryStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}
