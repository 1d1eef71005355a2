package sqlitekv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/germanamz/gridrop/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gridrop.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	_, err := s.Get(ctx, "toot")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Set(ctx, "toot", "one"))
	require.NoError(t, s.Set(ctx, "toot", "two"))

	v, err := s.Get(ctx, "toot")
	require.NoError(t, err)
	assert.Equal(t, "two", v)

	require.NoError(t, s.Delete(ctx, "toot"))
	_, err = s.Get(ctx, "toot")
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)

	require.NoError(t, s.Set(ctx, "connect4board", "blob"))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	v, err := s2.Get(ctx, "connect4board")
	require.NoError(t, err)
	assert.Equal(t, "blob", v)
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestCloseNil(t *testing.T) {
	var s *Store
	require.NoError(t, s.Close())
}
