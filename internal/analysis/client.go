// Package analysis calls the content analysis service that parses source
// files into the annotations stored alongside each file in the search index.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"rescribe/internal/domain/services"
)

const (
	defaultTimeout  = 3 * time.Second
	defaultRetryMax = 2
	maxResponseSize = 32 << 20
)

// Config holds client settings
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
}

// Client implements services.ContentAnalyzer over HTTP
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	logger  *slog.Logger
}

var _ services.ContentAnalyzer = (*Client)(nil)

// NewClient creates an analysis client. Requests are retried on connection
// errors and 5xx responses.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = defaultRetryMax
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    rc,
		logger:  logger,
	}
}

// Analyze posts the file to /processFile and returns the raw result
func (c *Client) Analyze(ctx context.Context, in *services.AnalyzeRequest) (json.RawMessage, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode analysis request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/processFile", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", in.Path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyze %s: invalid response status %d", in.Path, res.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read analysis response: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("analyze %s: response is not json", in.Path)
	}

	c.logger.Debug("analyzed file",
		"file_id", in.ID,
		"path", in.Path,
		"bytes", len(in.Content),
		"duration", time.Since(start),
	)
	return json.RawMessage(raw), nil
}

// Ping checks that the service answers on /ping
func (c *Client) Ping(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping analysis service: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("ping analysis service: status %d", res.StatusCode)
	}
	return nil
}
