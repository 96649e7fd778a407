package objectstore

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/couchcryptid/quake-data-etl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves the handful of path-style S3 calls the mirror makes.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]string
	failPut bool
}

func newFakeS3(buckets ...string) *fakeS3 {
	f := &fakeS3{buckets: map[string]bool{}, objects: map[string]string{}}
	for _, b := range buckets {
		f.buckets[b] = true
	}
	return f
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodHead && key == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && key == "":
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		if f.failPut || !f.buckets[bucket] {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied.</Message></Error>`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.objects[bucket+"/"+key] = string(body)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestMirror(t *testing.T, handler http.Handler) *Mirror {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m, err := NewMirror(&config.Config{
		MinioEndpoint:  strings.TrimPrefix(srv.URL, "http://"),
		MinioAccessKey: "access",
		MinioSecretKey: "secret",
		MinioBucket:    "quake-datasets",
		MinioRegion:    "us-east-1",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return m
}

func TestMirror_EnsureBucketCreatesMissing(t *testing.T) {
	s3 := newFakeS3()
	m := newTestMirror(t, s3)

	require.NoError(t, m.EnsureBucket(context.Background()))
	assert.True(t, s3.buckets["quake-datasets"])

	// Second call finds the bucket.
	require.NoError(t, m.EnsureBucket(context.Background()))
}

func TestMirror_Upload(t *testing.T) {
	s3 := newFakeS3("quake-datasets")
	m := newTestMirror(t, s3)

	path := filepath.Join(t.TempDir(), "cleaned_data_M1.txt")
	require.NoError(t, os.WriteFile(path, []byte("time,mag\n01-01-2023 00:00:00,4.5\n"), 0o600))

	require.NoError(t, m.Upload(context.Background(), "cleaned/cleaned_data_M1.txt", path))

	body, ok := s3.objects["quake-datasets/cleaned/cleaned_data_M1.txt"]
	require.True(t, ok, "object should be stored under the mirror key")
	assert.Contains(t, body, "01-01-2023 00:00:00,4.5")
}

func TestMirror_UploadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		m := newTestMirror(t, newFakeS3("quake-datasets"))
		err := m.Upload(context.Background(), "raw/dataset_M1.txt", filepath.Join(t.TempDir(), "nope.txt"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "raw/dataset_M1.txt")
	})

	t.Run("access denied", func(t *testing.T) {
		s3 := newFakeS3("quake-datasets")
		s3.failPut = true
		m := newTestMirror(t, s3)

		path := filepath.Join(t.TempDir(), "dataset_M1.txt")
		require.NoError(t, os.WriteFile(path, []byte("time\n"), 0o600))

		err := m.Upload(context.Background(), "raw/dataset_M1.txt", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Access Denied")
	})
}

func TestNewMirror_RequiresEndpoint(t *testing.T) {
	_, err := NewMirror(&config.Config{}, slog.Default())
	assert.Error(t, err)
}
