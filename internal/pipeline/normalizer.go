package pipeline

import (
	"bytes"
	"context"
	"io"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
)

// Normalizer turns raw dataset text into the cleaned artifact.
type Normalizer struct {
	policy    domain.TimestampPolicy
	delimiter domain.Delimiter
	cleaned   ArtifactStore
}

// NewNormalizer creates a Normalizer that writes to cleaned using delim.
func NewNormalizer(policy domain.TimestampPolicy, delim domain.Delimiter, cleaned ArtifactStore) *Normalizer {
	return &Normalizer{policy: policy, delimiter: delim, cleaned: cleaned}
}

// Normalize parses rawText, rewrites its time column and persists the result.
// Parsing, validation and encoding finish in memory before the cleaned sink is
// opened, so a failure leaves any previous artifact untouched.
func (n *Normalizer) Normalize(ctx context.Context, rawText, id string) (domain.CleanedDataset, error) {
	table, substituted, err := domain.Clean(rawText, n.policy)
	if err != nil {
		return domain.CleanedDataset{}, err
	}

	encoded, err := domain.EncodeTable(table, n.delimiter)
	if err != nil {
		return domain.CleanedDataset{}, &domain.PersistenceError{Path: n.cleaned.Path(domain.CleanedFileName(id)), Err: err}
	}

	path, err := n.cleaned.Put(ctx, domain.CleanedFileName(id), func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(encoded))
		return err
	})
	if err != nil {
		return domain.CleanedDataset{}, err
	}

	return domain.CleanedDataset{
		Identifier:  id,
		Table:       table,
		Path:        path,
		Substituted: substituted,
	}, nil
}
