package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
)

func TestMemoryStore_CreateGeneratesID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	doc, err := s.Create(ctx, "things", "", map[string]any{"name": "a"})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)

	got, err := s.Get(ctx, "things", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Data["name"])
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "things", "x", map[string]any{})
	require.NoError(t, err)
	_, err = s.Create(ctx, "things", "x", map[string]any{})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestMemoryStore_UpdateMergesTopLevelOnly(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "things", "x", map[string]any{
		"a":      1,
		"nested": map[string]any{"keep": "yes", "drop": "no"},
	})
	require.NoError(t, err)

	err = s.Update(ctx, "things", "x", map[string]any{"nested": map[string]any{"keep": "changed"}})
	require.NoError(t, err)

	got, err := s.Get(ctx, "things", "x")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Data["a"])
	assert.Equal(t, map[string]any{"keep": "changed"}, got.Data["nested"])
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	s := NewMemoryStore()
	err := s.Update(context.Background(), "things", "nope", map[string]any{"a": 1})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMemoryStore_DeleteMissingIsNoop(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.Delete(context.Background(), "things", "nope"))
}

func TestMemoryStore_QueryFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for id, owner := range map[string]string{"b": "u1", "a": "u1", "c": "u2"} {
		_, err := s.Create(ctx, "things", id, map[string]any{"owner": owner})
		require.NoError(t, err)
	}

	docs, err := s.Query(ctx, "things", service.Filter{Field: "owner", Value: "u1"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)

	all, err := s.Query(ctx, "things")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStore_FailNext(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, err := s.Create(ctx, "things", "x", map[string]any{})
	require.NoError(t, err)

	s.FailNext(OpGet, "things", apperror.NewTransient("boom", nil))

	_, err = s.Get(ctx, "things", "x")
	assert.ErrorIs(t, err, apperror.ErrTransient)

	_, err = s.Get(ctx, "things", "x")
	assert.NoError(t, err, "failure only applies once")
}

func TestMemoryStore_ReturnedDataIsDetached(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, err := s.Create(ctx, "things", "x", map[string]any{"a": "1"})
	require.NoError(t, err)

	got, err := s.Get(ctx, "things", "x")
	require.NoError(t, err)
	got.Data["a"] = "mutated"

	again, err := s.Get(ctx, "things", "x")
	require.NoError(t, err)
	assert.Equal(t, "1", again.Data["a"])
}
