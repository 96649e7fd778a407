// Command etl fetches every configured USGS earthquake dataset, persists the
// raw body, normalizes the time column and persists the cleaned table. It
// exits non-zero when any dataset fails.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/quake-data-etl/internal/adapter/filestore"
	kafkaadapter "github.com/couchcryptid/quake-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/quake-data-etl/internal/adapter/objectstore"
	"github.com/couchcryptid/quake-data-etl/internal/adapter/usgs"
	"github.com/couchcryptid/quake-data-etl/internal/config"
	"github.com/couchcryptid/quake-data-etl/internal/domain"
	"github.com/couchcryptid/quake-data-etl/internal/observability"
	"github.com/couchcryptid/quake-data-etl/internal/pipeline"
)

const metricsJob = "quake_etl"

func main() {
	os.Exit(run())
}

func run() int {
	fromRaw := flag.Bool("from-raw", false, "rebuild cleaned artifacts from persisted raw artifacts without fetching")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := usgs.NewClient(cfg.FetchTimeout, logger, metrics)
	fetcher := pipeline.NewFetcher(client, filestore.New(cfg.RawDir))
	normalizer := pipeline.NewNormalizer(cfg.TimestampPolicy, cfg.Delimiter, filestore.New(cfg.CleanDir))

	var opts []pipeline.Option

	if cfg.MinioEnabled() {
		mirror, err := objectstore.NewMirror(cfg, logger)
		if err != nil {
			logger.Error("failed to create artifact mirror", "error", err)
			return 1
		}
		if err := mirror.EnsureBucket(ctx); err != nil {
			logger.Error("failed to prepare artifact bucket", "error", err)
			return 1
		}
		opts = append(opts, pipeline.WithMirror(mirror))
		logger.Info("artifact mirror enabled", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	}

	var notifier *kafkaadapter.Notifier
	if cfg.KafkaEnabled() {
		notifier = kafkaadapter.NewNotifier(cfg, logger)
		opts = append(opts, pipeline.WithNotifier(notifier))
		logger.Info("run report publishing enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(fetcher, normalizer, logger, metrics, opts...)

	logger.Info("starting run",
		"datasets", len(cfg.Datasets),
		"max_parallel", cfg.MaxParallel,
		"timestamp_policy", cfg.TimestampPolicy,
		"delimiter", cfg.Delimiter.String(),
		"from_raw", *fromRaw,
	)

	var results []pipeline.Result
	if *fromRaw {
		results, err = p.RenormalizeAll(ctx, datasetIDs(cfg.Datasets), cfg.MaxParallel)
	} else {
		results, err = p.RunAll(ctx, cfg.Datasets, cfg.MaxParallel)
	}
	failed := summarize(logger, results)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if notifier != nil {
		if cerr := notifier.Close(); cerr != nil {
			logger.Error("kafka notifier close error", "error", cerr)
		}
	}
	if cfg.PushgatewayURL != "" {
		if perr := metrics.Push(shutdownCtx, cfg.PushgatewayURL, metricsJob); perr != nil {
			logger.Error("metrics push failed", "error", perr)
		}
	}

	if err != nil {
		logger.Error("run finished with failures", "failed", failed, "total", len(results))
		return 1
	}
	logger.Info("run complete", "total", len(results))
	return 0
}

func datasetIDs(datasets []domain.Dataset) []string {
	ids := make([]string, len(datasets))
	for i, ds := range datasets {
		ids[i] = ds.ID
	}
	return ids
}

// summarize logs one line per dataset and returns the number of failures.
func summarize(logger *slog.Logger, results []pipeline.Result) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("dataset failed",
				"dataset_id", r.Identifier,
				"transport_error", domain.IsTransportError(r.Err),
				"data_error", domain.IsDataError(r.Err),
				"error", r.Err,
			)
			continue
		}
		logger.Info("dataset succeeded",
			"dataset_id", r.Identifier,
			"rows", r.Report.Rows,
			"substituted", r.Report.Substituted,
			"raw_path", r.Report.RawPath,
			"cleaned_path", r.Report.CleanedPath,
		)
	}
	return failed
}
