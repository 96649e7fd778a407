package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
	"github.com/couchcryptid/quake-data-etl/internal/observability"
)

// Source retrieves the body of a remote dataset.
type Source interface {
	Fetch(ctx context.Context, id, rawURL string) (domain.RawDataset, error)
}

// ArtifactStore persists named artifacts atomically.
type ArtifactStore interface {
	Put(ctx context.Context, name string, write func(io.Writer) error) (string, error)
	Get(ctx context.Context, name string) ([]byte, error)
	Path(name string) string
}

// Mirror copies a persisted artifact to secondary storage.
type Mirror interface {
	Upload(ctx context.Context, key, localPath string) error
}

// Notifier announces a completed dataset run.
type Notifier interface {
	Notify(ctx context.Context, report domain.RunReport) error
}

// Option configures optional pipeline stages.
type Option func(*Pipeline)

// WithMirror uploads both artifacts after every successful normalization.
func WithMirror(m Mirror) Option {
	return func(p *Pipeline) { p.mirror = m }
}

// WithNotifier publishes a RunReport after every successful run.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// Pipeline runs the fetch, persist, normalize and persist sequence for one
// dataset at a time per identifier.
type Pipeline struct {
	fetcher    *Fetcher
	normalizer *Normalizer
	mirror     Mirror
	notifier   Notifier
	logger     *slog.Logger
	metrics    *observability.Metrics
	locks      *keyedMutex
}

// New creates a Pipeline with the given stages and observability.
func New(f *Fetcher, n *Normalizer, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    f,
		normalizer: n,
		logger:     logger,
		metrics:    metrics,
		locks:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches ds, persists the raw body, normalizes it and persists the
// cleaned table. Runs for the same identifier never overlap. Failures are
// *RunError.
func (p *Pipeline) Run(ctx context.Context, ds domain.Dataset) (domain.RunReport, error) {
	if err := domain.ValidateIdentifier(ds.ID); err != nil {
		return domain.RunReport{}, &RunError{Identifier: ds.ID, Stage: StageFetch, Err: err}
	}

	return p.guarded(ctx, ds.ID, StageFetch, func(logger *slog.Logger) (domain.RunReport, error) {
		logger.Info("fetching dataset", "url", ds.URL)
		raw, rawPath, err := p.fetcher.Fetch(ctx, ds)
		if err != nil {
			return domain.RunReport{}, &RunError{Identifier: ds.ID, Stage: fetchStage(err), Err: err}
		}
		logger.Debug("raw dataset persisted", "path", rawPath, "bytes", len(raw.Body))

		return p.finish(ctx, logger, raw, rawPath)
	})
}

// Renormalize rebuilds the cleaned artifact of id from its persisted raw
// artifact without contacting the source.
func (p *Pipeline) Renormalize(ctx context.Context, id string) (domain.RunReport, error) {
	if err := domain.ValidateIdentifier(id); err != nil {
		return domain.RunReport{}, &RunError{Identifier: id, Stage: StageLoadRaw, Err: err}
	}

	return p.guarded(ctx, id, StageLoadRaw, func(logger *slog.Logger) (domain.RunReport, error) {
		raw, err := p.fetcher.Load(ctx, id)
		if err != nil {
			return domain.RunReport{}, &RunError{Identifier: id, Stage: StageLoadRaw, Err: err}
		}
		logger.Info("renormalizing from raw artifact")

		return p.finish(ctx, logger, raw, p.fetcher.RawPath(id))
	})
}

// guarded holds the identifier lock around fn and records run metrics. A
// context cancelled while waiting for the lock fails at the first stage.
func (p *Pipeline) guarded(ctx context.Context, id string, first Stage, fn func(*slog.Logger) (domain.RunReport, error)) (domain.RunReport, error) {
	unlock := p.locks.Lock(id)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return domain.RunReport{}, &RunError{Identifier: id, Stage: first, Err: err}
	}

	logger := p.logger.With("dataset_id", id)
	p.metrics.DatasetsInFlight.Inc()
	defer p.metrics.DatasetsInFlight.Dec()

	start := time.Now()
	report, err := fn(logger)
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.RunsTotal.WithLabelValues(outcome(err)).Inc()

	if err != nil {
		logger.Error("dataset run failed", "error", err)
		return domain.RunReport{}, err
	}

	p.metrics.RowsCleaned.Add(float64(report.Rows))
	p.metrics.TimestampsMarked.Add(float64(report.Substituted))
	p.metrics.LastSuccess.WithLabelValues(id).Set(float64(report.CompletedAt.Unix()))
	logger.Info("dataset run complete",
		"rows", report.Rows,
		"substituted", report.Substituted,
		"cleaned_path", report.CleanedPath,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// finish normalizes raw and runs the optional mirror and notify stages.
func (p *Pipeline) finish(ctx context.Context, logger *slog.Logger, raw domain.RawDataset, rawPath string) (domain.RunReport, error) {
	id := raw.Identifier
	cleaned, err := p.normalizer.Normalize(ctx, raw.Body, id)
	if err != nil {
		return domain.RunReport{}, &RunError{Identifier: id, Stage: normalizeStage(err), Err: err}
	}
	if cleaned.Substituted > 0 {
		logger.Warn("unparseable timestamps replaced",
			"count", cleaned.Substituted,
			"marker", domain.UnparseableMarker,
		)
	}

	if p.mirror != nil {
		if err := p.mirrorArtifacts(ctx, id, rawPath, cleaned.Path); err != nil {
			return domain.RunReport{}, &RunError{Identifier: id, Stage: StageMirror, Err: err}
		}
	}

	report := domain.RunReport{
		Identifier:  id,
		SourceURL:   raw.SourceURL,
		RawPath:     rawPath,
		CleanedPath: cleaned.Path,
		Rows:        len(cleaned.Table.Rows),
		Substituted: cleaned.Substituted,
		RetrievedAt: raw.RetrievedAt,
		CompletedAt: domain.Now(),
	}

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, report); err != nil {
			return domain.RunReport{}, &RunError{Identifier: id, Stage: StageNotify, Err: err}
		}
	}
	return report, nil
}

func (p *Pipeline) mirrorArtifacts(ctx context.Context, id, rawPath, cleanedPath string) error {
	if err := p.mirror.Upload(ctx, RawObjectKey(id), rawPath); err != nil {
		return err
	}
	return p.mirror.Upload(ctx, CleanedObjectKey(id), cleanedPath)
}

// RawObjectKey is the mirror key of the raw artifact for id.
func RawObjectKey(id string) string {
	return "raw/" + domain.RawFileName(id)
}

// CleanedObjectKey is the mirror key of the cleaned artifact for id.
func CleanedObjectKey(id string) string {
	return "cleaned/" + domain.CleanedFileName(id)
}

func outcome(err error) string {
	var pe *domain.PersistenceError
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case domain.IsTransportError(err):
		return observability.OutcomeFetchError
	case domain.IsDataError(err):
		return observability.OutcomeDataError
	case errors.As(err, &pe):
		return observability.OutcomePersistenceError
	default:
		return observability.OutcomeError
	}
}
