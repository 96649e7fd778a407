package filestore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestStore_PutCreatesDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "data")
	s := New(root)

	path, err := s.Put(context.Background(), "dataset_M1.txt", writeString("time\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "dataset_M1.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "time\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
	assert.Equal(t, []string{"dataset_M1.txt"}, listDir(t, root))
}

func TestStore_PutOverwrites(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	_, err := s.Put(ctx, "a.txt", writeString("first run, longer content\n"))
	require.NoError(t, err)
	_, err = s.Put(ctx, "a.txt", writeString("second\n"))
	require.NoError(t, err)

	data, err := s.Get(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))
}

func TestStore_PutWriteFailureLeavesPreviousArtifact(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	ctx := context.Background()

	_, err := s.Put(ctx, "a.txt", writeString("good\n"))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Put(ctx, "a.txt", func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	require.Error(t, err)

	var pe *domain.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, filepath.Join(root, "a.txt"), pe.Path)
	assert.ErrorIs(t, err, boom)

	data, err := s.Get(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "good\n", string(data))
	assert.Equal(t, []string{"a.txt"}, listDir(t, root), "temp file should be removed")
}

func TestStore_OpenFailsWhenRootIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := New(blocker).Put(context.Background(), "a.txt", writeString("x"))
	var pe *domain.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "create directory")
}

func TestSink_CloseWithoutCommit(t *testing.T) {
	root := t.TempDir()
	sink, err := New(root).Open("a.txt")
	require.NoError(t, err)

	_, err = sink.Write([]byte("abandoned"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	assert.Empty(t, listDir(t, root))

	_, err = sink.Write([]byte("more"))
	assert.Error(t, err)
	assert.Error(t, sink.Commit())
}

func TestStore_GetMissing(t *testing.T) {
	_, err := New(t.TempDir()).Get(context.Background(), "nope.txt")
	var pe *domain.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
