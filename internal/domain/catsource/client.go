// Package catsource talks to the CATAAS random-cat endpoint.
package catsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cat-tagline-go/internal/platform/config"
	"cat-tagline-go/internal/utils"
)

const userAgent = "cat-tagline/1.0"

// ErrEmptyBody is returned when the endpoint answers 2xx with no bytes.
var ErrEmptyBody = errors.New("empty response body")

// Client fetches one random cat image per call. It never retries.
type Client struct {
	httpClient *http.Client
	url        string
	maxSize    int64
	logger     *utils.Logger
}

// NewClient builds a client from the cat_api section; maxSize caps the body.
func NewClient(cfg config.CatAPIConfig, maxSize int64, logger *utils.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = config.DefaultCatAPIBaseURL
	}
	path := cfg.Path
	if path == "" {
		path = config.DefaultCatAPIPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        base + path,
		maxSize:    maxSize,
		logger:     logger,
	}
}

// URL returns the endpoint the client fetches from.
func (c *Client) URL() string {
	return c.url
}

// FetchRandom performs a single GET and returns the raw body.
func (c *Client) FetchRandom(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch cat image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if c.maxSize > 0 && resp.ContentLength > c.maxSize {
		return nil, fmt.Errorf("remote image exceeds max size: %d", resp.ContentLength)
	}

	var body io.Reader = resp.Body
	if c.maxSize > 0 {
		body = io.LimitReader(resp.Body, c.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if c.maxSize > 0 && int64(len(data)) > c.maxSize {
		return nil, fmt.Errorf("remote image exceeds max size of %d bytes", c.maxSize)
	}
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}

	c.logger.DebugTag("CAT", "fetched %d bytes content_type=%s in %s",
		len(data), resp.Header.Get("Content-Type"), time.Since(start).Round(time.Millisecond))
	return data, nil
}
