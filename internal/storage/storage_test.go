package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ghindex/internal/core/domain"
)

func sampleCorpus(t *testing.T) domain.Corpus {
	t.Helper()
	updated, err := time.Parse(time.RFC3339, "2024-06-01T00:00:00Z")
	require.NoError(t, err)
	return domain.Corpus{
		"I1": {
			ID:        "I1",
			Type:      domain.TypeIssue,
			Number:    1,
			Title:     "first",
			URL:       "https://github.com/o/r/issues/1",
			Labels:    []string{"bug"},
			UpdatedAt: updated,
			Excerpt:   "first excerpt",
		},
		"DMDX1": {
			ID:        "DMDX1",
			Type:      domain.TypeDiscussion,
			Number:    9,
			Title:     "planning",
			URL:       "https://github.com/o/r/discussions/9",
			Labels:    []string{},
			UpdatedAt: updated,
			Excerpt:   "planning excerpt",
		},
	}
}

func TestStateStore(t *testing.T) {
	t.Run("missing file loads as zero state", func(t *testing.T) {
		store := NewStateStore(t.TempDir())

		state := store.Load()

		assert.Nil(t, state.LastRun)
		assert.Nil(t, state.Since)
		assert.False(t, state.HasSince())
	})

	t.Run("corrupt file loads as zero state", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, StateFileName), []byte("{nope"), 0o644))
		store := NewStateStore(dir)

		state := store.Load()

		assert.Nil(t, state.Since)
	})

	t.Run("save then load round-trips", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStateStore(dir)
		since := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		lastRun := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

		require.NoError(t, store.Save(domain.PipelineState{LastRun: &lastRun, Since: &since}))
		state := store.Load()

		require.NotNil(t, state.Since)
		assert.True(t, since.Equal(*state.Since))
		require.NotNil(t, state.LastRun)
		assert.True(t, lastRun.Equal(*state.LastRun))
	})

	t.Run("state file is indented and uses snake_case keys", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStateStore(dir)
		since := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, store.Save(domain.PipelineState{Since: &since}))
		data, err := os.ReadFile(filepath.Join(dir, StateFileName))

		require.NoError(t, err)
		assert.Contains(t, string(data), "\"since\"")
		assert.Contains(t, string(data), "\"last_run\"")
		assert.Contains(t, string(data), "\n  ")
	})

	t.Run("save creates the cache directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "cache")
		store := NewStateStore(dir)

		require.NoError(t, store.Save(domain.PipelineState{}))
		assert.FileExists(t, filepath.Join(dir, StateFileName))
	})
}

func TestCorpusStore(t *testing.T) {
	t.Run("missing file loads as empty corpus", func(t *testing.T) {
		store := NewCorpusStore(t.TempDir())

		corpus := store.Load()

		assert.Empty(t, corpus)
	})

	t.Run("corrupt file loads as empty corpus", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, CorpusFileName), []byte("[{"), 0o644))
		store := NewCorpusStore(dir)

		corpus := store.Load()

		assert.Empty(t, corpus)
	})

	t.Run("save then load round-trips keyed by id", func(t *testing.T) {
		store := NewCorpusStore(t.TempDir())
		corpus := sampleCorpus(t)

		require.NoError(t, store.Save(corpus))
		loaded := store.Load()

		require.Len(t, loaded, 2)
		assert.Equal(t, corpus["I1"].Title, loaded["I1"].Title)
		assert.Equal(t, corpus["I1"].Labels, loaded["I1"].Labels)
		assert.Equal(t, corpus["DMDX1"].Excerpt, loaded["DMDX1"].Excerpt)
	})

	t.Run("bodies are never persisted", func(t *testing.T) {
		store := NewCorpusStore(t.TempDir())
		corpus := domain.Corpus{"I1": {ID: "I1", Body: "raw body text", Excerpt: "raw body text"}}

		require.NoError(t, store.Save(corpus))
		data, err := os.ReadFile(store.Path())
		require.NoError(t, err)
		assert.NotContains(t, string(data), "\"body\"")

		loaded := store.Load()
		assert.Empty(t, loaded["I1"].Body)
		assert.Equal(t, "raw body text", loaded["I1"].Excerpt)
	})

	t.Run("saved file is a compact array sorted by id", func(t *testing.T) {
		store := NewCorpusStore(t.TempDir())

		require.NoError(t, store.Save(sampleCorpus(t)))
		data, err := os.ReadFile(store.Path())

		require.NoError(t, err)
		s := string(data)
		assert.True(t, s[0] == '[')
		assert.Less(t, strings.Index(s, "DMDX1"), strings.Index(s, "\"I1\""))
		assert.NotContains(t, s, "\n")
	})

	t.Run("saving twice produces identical bytes", func(t *testing.T) {
		store := NewCorpusStore(t.TempDir())
		corpus := sampleCorpus(t)

		require.NoError(t, store.Save(corpus))
		first, err := os.ReadFile(store.Path())
		require.NoError(t, err)

		require.NoError(t, store.Save(corpus))
		second, err := os.ReadFile(store.Path())
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}

func TestWriteFileAtomic(t *testing.T) {
	t.Run("writes the file and leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.json")

		require.NoError(t, WriteFileAtomic(path, []byte("hello")))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("replaces existing content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")

		require.NoError(t, WriteFileAtomic(path, []byte("old")))
		require.NoError(t, WriteFileAtomic(path, []byte("new")))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})
}
