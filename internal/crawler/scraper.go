package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"newspipe/internal/config"
	"newspipe/internal/logger"
	"newspipe/pkg/utils"
)

// Scraper errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrRetriesExhausted     = errors.New("retries exhausted")
	ErrResponseTooLarge     = errors.New("response too large")
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Scraper performs GET requests with config-driven retry on server errors.
type Scraper struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	headers      *utils.HTTPHelper
	sleep        SleepFunc
	log          *logger.Logger
	bufferSizeKb int
}

// NewScraper creates a new scraper instance with the default fetch policy.
func NewScraper(log *logger.Logger) *Scraper {
	policy := config.Default().Fetcher.Retry

	return NewScraperWithConfig(&policy, 4096, log)
}

// NewScraperWithConfig creates a new scraper with custom retry policy.
func NewScraperWithConfig(retryPolicy *config.RetryPolicy, bufferSizeKb int, log *logger.Logger) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		retryPolicy:  retryPolicy,
		headers:      utils.NewHTTPHelper(),
		sleep:        sleepContext,
		log:          log,
		bufferSizeKb: bufferSizeKb,
	}
}

// SetSleep replaces the backoff sleeper. Tests use it to skip real waits.
func (s *Scraper) SetSleep(fn SleepFunc) {
	s.sleep = fn
}

// SetHTTPClient replaces the underlying HTTP client.
func (s *Scraper) SetHTTPClient(client *http.Client) {
	s.client = client
}

// Response is a completed GET.
type Response struct {
	Body       []byte
	StatusCode int
	Attempts   int
	Duration   time.Duration
}

// Get fetches url with the given extra headers. Only 5xx responses are
// retried; 4xx, transport errors and timeouts fail immediately.
// A non-2xx final response is returned together with an error wrapping
// ErrUnexpectedStatusCode so callers can inspect the body.
func (s *Scraper) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	start := time.Now()
	maxAttempts := s.retryPolicy.MaxAttempts

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := s.do(ctx, url, headers)
		if err != nil {
			return nil, fmt.Errorf("request failed (attempt %d/%d): %w", attempt, maxAttempts, err)
		}

		resp.Attempts = attempt
		resp.Duration = time.Since(start)

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		lastErr = fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)

		if !isRetryableStatus(resp.StatusCode) {
			return resp, lastErr
		}

		if attempt == maxAttempts {
			return resp, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, lastErr)
		}

		delay := s.retryPolicy.GetRetryDelay(attempt)
		s.log.Warn("⚠️  Server error, backing off",
			"status", resp.StatusCode, "attempt", attempt, "delay", delay)

		if err := s.sleep(ctx, delay); err != nil {
			return resp, fmt.Errorf("backoff interrupted: %w", err)
		}
	}

	return nil, lastErr
}

func (s *Scraper) do(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.BuildHeaders(headers)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(s.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: body exceeds %d KB", ErrResponseTooLarge, s.bufferSizeKb)
	}

	return &Response{Body: body, StatusCode: resp.StatusCode}, nil
}

// isRetryableStatus retries server-class failures only.
func isRetryableStatus(statusCode int) bool {
	return statusCode >= 500 && statusCode <= 599
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
