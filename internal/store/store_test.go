package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.json")
	s := NewJSONStore[string](path, zap.NewNop())

	_, ok, err := s.Get("missing_comic.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put("comic_1.png", "a stick figure argues with a chart"))

	// A fresh store over the same file sees the write.
	reopened := NewJSONStore[string](path, zap.NewNop())
	v, ok, err := reopened.Get("comic_1.png")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a stick figure argues with a chart", v)
}

func TestJSONStoreMissingFileReadsEmpty(t *testing.T) {
	s := NewJSONStore[int](filepath.Join(t.TempDir(), "never-written.json"), zap.NewNop())

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestJSONStoreLastWriteWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.json")
	s := NewJSONStore[string](path, zap.NewNop())

	require.NoError(t, s.Put("comic_2.png", "first"))
	require.NoError(t, s.Put("comic_2.png", "second"))

	v, ok, err := s.Get("comic_2.png")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestJSONStoreFlushesEveryPut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "labels.json")
	s := NewJSONStore[string](path, zap.NewNop())

	require.NoError(t, s.Put("comic_3.png", "value"))

	// Written to disk immediately, parent directory created.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "comic_3.png")
}

func TestJSONStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewJSONStore[string](path, zap.NewNop())
	_, _, err := s.Get("any")
	require.Error(t, err)
}

func TestJSONStoreKeysSorted(t *testing.T) {
	s := NewJSONStore[string](filepath.Join(t.TempDir(), "labels.json"), zap.NewNop())
	require.NoError(t, s.Put("b.png", "2"))
	require.NoError(t, s.Put("a.png", "1"))
	require.NoError(t, s.Put("c.png", "3"))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, keys)
}
