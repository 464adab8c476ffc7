package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")
	s, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	_, err = s.Read(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(ctx, "page_cache", []byte(`{"v":1}`)))
	doc, err := s.Read(ctx, "page_cache")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(doc))

	// Writes replace the whole document.
	require.NoError(t, s.Write(ctx, "page_cache", []byte(`{"v":2}`)))
	doc, err = s.Read(ctx, "page_cache")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(doc))

	require.NoError(t, s.Delete(ctx, "page_cache"))
	_, err = s.Read(ctx, "page_cache")
	assert.ErrorIs(t, err, ErrNotFound)

	// Idempotent delete.
	assert.NoError(t, s.Delete(ctx, "page_cache"))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "page_cache", []byte(`{"v":1}`)))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer s.Close()

	doc, err := s.Read(ctx, "page_cache")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(doc))
}

func TestMemoryStore_CopiesDocuments(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	in := []byte("abc")
	require.NoError(t, m.Write(ctx, "k", in))
	in[0] = 'z' // caller mutation must not leak into the store

	out, err := m.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
}
