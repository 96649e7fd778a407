package pipeline

import (
	"context"
	"io"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
)

// Fetcher retrieves a remote dataset and persists the body verbatim to the
// raw sink. Nothing is written when the retrieval fails.
type Fetcher struct {
	source Source
	raw    ArtifactStore
}

// NewFetcher creates a Fetcher that reads from source and writes to raw.
func NewFetcher(source Source, raw ArtifactStore) *Fetcher {
	return &Fetcher{source: source, raw: raw}
}

// Fetch retrieves ds and persists it. It returns the raw dataset and the path
// of the raw artifact.
func (f *Fetcher) Fetch(ctx context.Context, ds domain.Dataset) (domain.RawDataset, string, error) {
	raw, err := f.source.Fetch(ctx, ds.ID, ds.URL)
	if err != nil {
		return domain.RawDataset{}, "", err
	}

	path, err := f.raw.Put(ctx, domain.RawFileName(ds.ID), func(w io.Writer) error {
		_, err := io.WriteString(w, raw.Body)
		return err
	})
	if err != nil {
		return domain.RawDataset{}, "", err
	}
	return raw, path, nil
}

// Load reads a previously persisted raw artifact instead of fetching. The
// returned dataset carries no source URL or retrieval time.
func (f *Fetcher) Load(ctx context.Context, id string) (domain.RawDataset, error) {
	body, err := f.raw.Get(ctx, domain.RawFileName(id))
	if err != nil {
		return domain.RawDataset{}, err
	}
	return domain.RawDataset{Identifier: id, Body: string(body)}, nil
}

// RawPath is the location of the raw artifact for id.
func (f *Fetcher) RawPath(id string) string {
	return f.raw.Path(domain.RawFileName(id))
}
