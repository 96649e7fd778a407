package usgs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
	"github.com/couchcryptid/quake-data-etl/internal/observability"
)

const userAgent = "quake-data-etl/1.0"

// Client fetches CSV catalog exports from the USGS FDSN event service, or any
// endpoint that returns a delimited table over HTTP GET.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a client whose requests, including the body read, are
// bounded by timeout.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch retrieves the complete response body of rawURL. The body is returned
// as-is; no format validation happens here. Failures are *domain.FetchError.
func (c *Client) Fetch(ctx context.Context, id, rawURL string) (domain.RawDataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.RawDataset{}, &domain.FetchError{Kind: domain.FetchNetwork, URL: rawURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RawDataset{}, &domain.FetchError{Kind: domain.FetchNetwork, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("source returned non-success status",
			"dataset_id", id,
			"url", rawURL,
			"status", resp.StatusCode,
		)
		return domain.RawDataset{}, &domain.FetchError{
			Kind:       domain.FetchHTTPStatus,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode, snippet),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RawDataset{}, &domain.FetchError{Kind: domain.FetchNetwork, URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	elapsed := time.Since(start)
	c.metrics.FetchDuration.Observe(elapsed.Seconds())
	c.metrics.FetchBytes.Add(float64(len(body)))
	c.logger.Debug("fetched dataset",
		"dataset_id", id,
		"url", rawURL,
		"bytes", len(body),
		"duration", elapsed,
	)

	return domain.RawDataset{
		Identifier:  id,
		SourceURL:   rawURL,
		Body:        string(body),
		RetrievedAt: domain.Now(),
	}, nil
}

// IsTimeout reports whether a fetch failed because the deadline expired.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
