package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yourorg/moex-data-service/internal/config"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// StatusError is returned when an upstream responds with a non-2xx status.
// It is retryable up to the attempt limit, then fatal for the cycle.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status code %d: %s", e.StatusCode, e.Body)
}

// BaseClient is the shared resilient HTTP transport: a bounded connection
// pool, a per-call timeout, and bounded exponential-backoff retry applied
// uniformly to every fetch.
type BaseClient struct {
	baseURL    string
	httpClient *http.Client
	attempts   int
	minWait    time.Duration
	maxWait    time.Duration
	logger     *zap.Logger
}

// NewBaseClient creates a resilient client for the given upstream base URL
func NewBaseClient(baseURL string, cfg config.HTTPClientConfig, logger *zap.Logger) *BaseClient {
	return &BaseClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxConnsPerHost:     cfg.MaxConns,
				MaxIdleConnsPerHost: cfg.MaxIdleConns,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		attempts: cfg.RetryAttempts,
		minWait:  cfg.RetryMinWait,
		maxWait:  cfg.RetryMaxWait,
		logger:   logger,
	}
}

// GetJSON fetches path with params and decodes the JSON body into out
func (c *BaseClient) GetJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	body, err := c.getWithRetry(ctx, path, params)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("Failed to decode upstream JSON",
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("failed to decode response for %s: %w", path, err)
	}

	return nil
}

// GetText fetches path with params and returns the raw body
func (c *BaseClient) GetText(ctx context.Context, path string, params url.Values) (string, error) {
	body, err := c.getWithRetry(ctx, path, params)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// getWithRetry performs a GET with up to c.attempts tries, waiting an
// exponentially growing interval between failures (minWait doubling up to
// maxWait). Network errors and non-2xx statuses are both retried.
func (c *BaseClient) getWithRetry(ctx context.Context, path string, params url.Values) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.minWait
	policy.MaxInterval = c.maxWait
	policy.Multiplier = 2
	policy.RandomizationFactor = 0

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		body, err = c.get(ctx, path, params)
		if err != nil {
			c.logger.Warn("Fetch attempt failed",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return err
	}

	err := backoff.Retry(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.attempts-1)), ctx),
	)
	if err != nil {
		c.logger.Error("Fetch failed after retries",
			zap.String("path", path),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return nil, err
	}

	return body, nil
}

func (c *BaseClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = reqURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body for %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(bodyBytes), 512)}
	}

	return bodyBytes, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
