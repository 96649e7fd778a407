package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
)

const defaultDatasets = "M1=2023-01-01/2023-01-02"

// Config holds all job settings, populated from environment variables.
type Config struct {
	Datasets        []domain.Dataset
	SourceURL       string
	FetchTimeout    time.Duration
	Delimiter       domain.Delimiter
	TimestampPolicy domain.TimestampPolicy
	RawDir          string
	CleanDir        string
	MaxParallel     int

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional integrations; each is disabled when its address is empty.
	PushgatewayURL string
	KafkaBrokers   []string
	KafkaTopic     string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "10s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	delim, err := domain.ParseDelimiter(sharedcfg.EnvOrDefault("OUTPUT_DELIMITER", "comma"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTPUT_DELIMITER: %w", err)
	}

	policy, err := domain.ParseTimestampPolicy(sharedcfg.EnvOrDefault("TIMESTAMP_POLICY", string(domain.PolicyAbort)))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMESTAMP_POLICY: %w", err)
	}

	maxParallel, err := parseMaxParallel()
	if err != nil {
		return nil, err
	}

	minioUseSSL, err := parseBool("MINIO_USE_SSL", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SourceURL:       sharedcfg.EnvOrDefault("SOURCE_URL", domain.DefaultSourceURL),
		FetchTimeout:    fetchTimeout,
		Delimiter:       delim,
		TimestampPolicy: policy,
		RawDir:          sharedcfg.EnvOrDefault("RAW_DIR", "data"),
		CleanDir:        sharedcfg.EnvOrDefault("CLEAN_DIR", "output"),
		MaxParallel:     maxParallel,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		KafkaBrokers:   parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     sharedcfg.EnvOrDefault("KAFKA_TOPIC", "cleaned-quake-datasets"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    sharedcfg.EnvOrDefault("MINIO_BUCKET", "quake-datasets"),
		MinioRegion:    sharedcfg.EnvOrDefault("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    minioUseSSL,
	}

	cfg.Datasets, err = loadDatasets(cfg.SourceURL)
	if err != nil {
		return nil, err
	}

	if cfg.RawDir == "" {
		return nil, errors.New("RAW_DIR is required")
	}
	if cfg.CleanDir == "" {
		return nil, errors.New("CLEAN_DIR is required")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MinioEnabled() {
		if strings.Contains(cfg.MinioEndpoint, "://") {
			return nil, fmt.Errorf("MINIO_ENDPOINT must not include scheme: %q", cfg.MinioEndpoint)
		}
		if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
			return nil, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
		}
	}

	return cfg, nil
}

// KafkaEnabled reports whether run reports should be published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// MinioEnabled reports whether artifacts should be mirrored to object storage.
func (c *Config) MinioEnabled() bool { return c.MinioEndpoint != "" }

// loadDatasets resolves DATASET_ID/DATASET_URL, falling back to DATASETS.
func loadDatasets(sourceURL string) ([]domain.Dataset, error) {
	id, rawURL := os.Getenv("DATASET_ID"), os.Getenv("DATASET_URL")
	if id != "" || rawURL != "" {
		if id == "" || rawURL == "" {
			return nil, errors.New("DATASET_ID and DATASET_URL must be set together")
		}
		if err := domain.ValidateIdentifier(id); err != nil {
			return nil, fmt.Errorf("invalid DATASET_ID: %w", err)
		}
		if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
			return nil, fmt.Errorf("invalid DATASET_URL %q", rawURL)
		}
		return []domain.Dataset{{ID: id, URL: rawURL}}, nil
	}

	return ParseDatasets(sharedcfg.EnvOrDefault("DATASETS", defaultDatasets), sourceURL)
}

// ParseDatasets parses a comma-separated list of "id=start/end" entries into
// datasets whose URLs query sourceURL for that time window.
func ParseDatasets(list, sourceURL string) ([]domain.Dataset, error) {
	var out []domain.Dataset
	seen := map[string]bool{}
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, window, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid DATASETS entry %q (want id=start/end)", entry)
		}
		start, end, ok := strings.Cut(window, "/")
		if !ok || start == "" || end == "" {
			return nil, fmt.Errorf("invalid DATASETS entry %q (want id=start/end)", entry)
		}
		if err := domain.ValidateIdentifier(id); err != nil {
			return nil, fmt.Errorf("invalid DATASETS entry %q: %w", entry, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate dataset identifier %q in DATASETS", id)
		}
		seen[id] = true

		u, err := domain.QueryURL(sourceURL, start, end)
		if err != nil {
			return nil, fmt.Errorf("invalid DATASETS entry %q: %w", entry, err)
		}
		out = append(out, domain.Dataset{ID: id, URL: u})
	}
	if len(out) == 0 {
		return nil, errors.New("DATASETS is required")
	}
	return out, nil
}

// parseBrokers leaves Kafka disabled when the variable is unset.
func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}

func parseMaxParallel() (int, error) {
	s := sharedcfg.EnvOrDefault("MAX_PARALLEL", "4")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 64 {
		return 0, fmt.Errorf("invalid MAX_PARALLEL %q (want 1-64)", s)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
