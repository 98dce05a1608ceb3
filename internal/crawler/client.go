// Package crawler fetches news articles from the article search provider.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newspipe/internal/config"
	"newspipe/internal/logger"
	"newspipe/internal/models"
	"newspipe/internal/normalizer"
)

// Fetch errors.
var (
	ErrFetchFailed   = errors.New("article fetch failed")
	ErrInvalidLimit  = errors.New("limit must be at least 1")
	ErrProviderError = errors.New("article provider returned an error")
)

// maxPageSize is the provider's hard ceiling on page size.
const maxPageSize = 100

// searchResponse is the body of GET /everything.
type searchResponse struct {
	Status       string              `json:"status"`
	Code         string              `json:"code"`
	Message      string              `json:"message"`
	Articles     []models.RawArticle `json:"articles"`
	TotalResults int                 `json:"totalResults"`
}

// Client is the article source: search, normalize, bound.
type Client struct {
	scraper   *Scraper
	processor *normalizer.Processor
	log       *logger.Logger
	baseURL   string
	apiKey    string
	language  string
	sortBy    string
	pageCap   int
}

// NewClient creates a client from the fetcher section of the config.
func NewClient(cfg config.FetcherConfig, apiKey string, log *logger.Logger) *Client {
	policy := cfg.Retry

	return NewClientWithDeps(cfg, apiKey, NewScraperWithConfig(&policy, 4096, log), normalizer.NewProcessor(), log)
}

// NewClientWithDeps creates a client with injected dependencies.
func NewClientWithDeps(cfg config.FetcherConfig, apiKey string, scraper *Scraper, processor *normalizer.Processor, log *logger.Logger) *Client {
	pageCap := cfg.MaxPageSize
	if pageCap <= 0 || pageCap > maxPageSize {
		pageCap = maxPageSize
	}

	return &Client{
		scraper:   scraper,
		processor: processor,
		log:       log,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    apiKey,
		language:  cfg.Language,
		sortBy:    cfg.SortBy,
		pageCap:   pageCap,
	}
}

// PageSize over-fetches twice the limit to absorb filtering loss.
// It does not guarantee that limit articles survive.
func (c *Client) PageSize(limit int) int {
	return min(c.pageCap, 2*limit)
}

// Fetch searches for topic and returns at most limit normalized articles
// in provider order (newest first). On any unrecoverable failure it
// returns an empty slice and an error wrapping ErrFetchFailed.
func (c *Client) Fetch(ctx context.Context, topic string, limit int) ([]models.Article, error) {
	if limit < 1 {
		return []models.Article{}, fmt.Errorf("%w: %w: %d", ErrFetchFailed, ErrInvalidLimit, limit)
	}

	raws, err := c.search(ctx, topic, c.PageSize(limit))
	if err != nil {
		c.log.Error("❌ Error fetching news", "error", err)

		return []models.Article{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	batch := c.processor.ProcessBatch(raws, limit)

	for _, dropErr := range batch.Dropped {
		c.log.Debug("Dropped article", "reason", dropErr)
	}

	c.log.Info("Normalized articles",
		"raw", len(raws), "examined", batch.Examined, "kept", len(batch.Articles), "limit", limit)

	return batch.Articles, nil
}

func (c *Client) search(ctx context.Context, topic string, pageSize int) ([]models.RawArticle, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("language", c.language)
	params.Set("sortBy", c.sortBy)
	params.Set("pageSize", strconv.Itoa(pageSize))

	endpoint := c.baseURL + "/everything?" + params.Encode()

	startTime := time.Now()

	resp, err := c.scraper.Get(ctx, endpoint, map[string]string{"X-Api-Key": c.apiKey})
	if err != nil {
		if resp != nil {
			if perr := providerError(resp.Body); perr != nil {
				return nil, fmt.Errorf("%w (%w)", err, perr)
			}
		}

		return nil, err
	}

	var body searchResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if body.Status == "error" {
		return nil, fmt.Errorf("%w: %s: %s", ErrProviderError, body.Code, body.Message)
	}

	c.log.Info(fmt.Sprintf("✅ Fetched %d raw articles in %v", len(body.Articles), time.Since(startTime)),
		"total_results", body.TotalResults, "attempts", resp.Attempts)

	return body.Articles, nil
}

// providerError extracts the provider's error payload from a failed response.
func providerError(data []byte) error {
	var body searchResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Status != "error" {
		return nil
	}

	return fmt.Errorf("%w: %s: %s", ErrProviderError, body.Code, body.Message)
}
