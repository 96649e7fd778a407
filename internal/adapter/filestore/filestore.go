// Package filestore persists dataset artifacts on the local filesystem.
//
// Every write goes to a temporary file in the destination directory and is
// renamed over the final name only after the content is flushed and synced,
// so readers observe either the previous artifact or the complete new one.
package filestore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store writes artifacts under a single root directory.
type Store struct {
	root string
}

// New creates a store rooted at dir. The directory is created lazily on the
// first write.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Path returns the final location of the named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}

// Open acquires a sink for the named artifact. Callers must Close the sink on
// every path; only a successful Commit makes the content visible.
func (s *Store) Open(name string) (*Sink, error) {
	path := s.Path(name)
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return nil, &domain.PersistenceError{Path: path, Err: fmt.Errorf("create directory: %w", err)}
	}
	f, err := os.CreateTemp(s.root, "."+name+".tmp-*")
	if err != nil {
		return nil, &domain.PersistenceError{Path: path, Err: fmt.Errorf("create temp file: %w", err)}
	}
	return &Sink{
		f:    f,
		w:    bufio.NewWriter(f),
		path: path,
	}, nil
}

// Put writes the named artifact through write and commits it. It returns the
// final path.
func (s *Store) Put(_ context.Context, name string, write func(io.Writer) error) (path string, err error) {
	sink, err := s.Open(name)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := write(sink); err != nil {
		return "", &domain.PersistenceError{Path: sink.path, Err: err}
	}
	if err := sink.Commit(); err != nil {
		return "", err
	}
	return sink.path, nil
}

// Get reads the named artifact.
func (s *Store) Get(_ context.Context, name string) ([]byte, error) {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.PersistenceError{Path: path, Err: err}
	}
	return data, nil
}

// Sink is an open, uncommitted artifact.
type Sink struct {
	f         *os.File
	w         *bufio.Writer
	path      string
	committed bool
	closed    bool
}

// Write buffers p into the temporary file.
func (k *Sink) Write(p []byte) (int, error) {
	if k.closed {
		return 0, errors.New("write to closed sink")
	}
	return k.w.Write(p)
}

// Commit flushes and syncs the temporary file, then renames it over the final
// path.
func (k *Sink) Commit() error {
	if k.closed {
		return &domain.PersistenceError{Path: k.path, Err: errors.New("commit of closed sink")}
	}
	tmp := k.f.Name()
	if err := k.w.Flush(); err != nil {
		return &domain.PersistenceError{Path: k.path, Err: fmt.Errorf("flush: %w", err)}
	}
	if err := k.f.Chmod(filePerm); err != nil {
		return &domain.PersistenceError{Path: k.path, Err: fmt.Errorf("chmod: %w", err)}
	}
	if err := k.f.Sync(); err != nil {
		return &domain.PersistenceError{Path: k.path, Err: fmt.Errorf("sync: %w", err)}
	}
	if err := k.f.Close(); err != nil {
		k.closed = true
		return &domain.PersistenceError{Path: k.path, Err: fmt.Errorf("close: %w", err)}
	}
	k.closed = true
	if err := os.Rename(tmp, k.path); err != nil {
		return &domain.PersistenceError{Path: k.path, Err: fmt.Errorf("rename: %w", err)}
	}
	k.committed = true
	return nil
}

// Close releases the sink. Without a prior successful Commit the temporary
// file is removed and the final path is left untouched. Close is idempotent.
func (k *Sink) Close() error {
	tmp := k.f.Name()
	if !k.closed {
		k.closed = true
		_ = k.f.Close()
	}
	if k.committed {
		return nil
	}
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &domain.PersistenceError{Path: k.path, Err: fmt.Errorf("remove temp file: %w", err)}
	}
	return nil
}
