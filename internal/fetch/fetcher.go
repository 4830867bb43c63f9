package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// PageCache satisfies fetch requests from previously stored content.
// The database package's Store implements it over the entity table.
type PageCache interface {
	// CachedPage returns the stored raw content for a site, if any.
	CachedPage(ctx context.Context, site string) (string, bool, error)
}

// FetchError wraps a transport-level failure for one site. The crawl
// treats it as a per-site failure: logged, the site skipped, the run
// continues.
type FetchError struct {
	// Site is the site identifier whose fetch failed.
	Site string

	// Err is the underlying transport or HTTP error.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Site, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client fetches wiki pages with cache-first lookups and paced,
// serialized network access.
type Client struct {
	// httpClient performs the actual requests.
	httpClient *http.Client

	// baseURL is the wiki host, no trailing slash.
	baseURL string

	// cache is consulted before any network access.
	cache PageCache

	// delay is the pause inserted before every uncached fetch.
	delay time.Duration

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// logger receives fetch diagnostics.
	logger *slog.Logger

	// netMu serializes uncached fetches. Held across the pacing delay
	// and the request so that concurrent callers cannot interleave
	// network access.
	netMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDelay sets the pacing delay before uncached fetches.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.delay = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the given wiki host. The cache is
// required: durable page caching is what makes restarts cheap and
// repeat classification free.
func NewClient(baseURL string, cache PageCache, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURL,
		cache:       cache,
		delay:       1500 * time.Millisecond,
		userAgent:   "digigraph/1.0",
		maxBodySize: 2 * 1024 * 1024,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// Fetch returns the raw content of a site, from cache when possible.
// On a cache miss it waits the pacing delay, issues one GET against the
// wiki, and returns the body. The caller persists the content; the
// fetcher itself never writes to the cache.
func (c *Client) Fetch(ctx context.Context, site string) (string, error) {
	// A cache lookup failure is a storage fault, not a transport one,
	// so it is returned unwrapped and aborts the run.
	html, ok, err := c.cache.CachedPage(ctx, site)
	if err != nil {
		return "", fmt.Errorf("cache lookup for %s: %w", site, err)
	}
	if ok {
		c.logger.Debug("page cache hit", "site", site)
		return html, nil
	}

	c.netMu.Lock()
	defer c.netMu.Unlock()

	c.logger.Info("fetching uncached page", "site", site, "delay", c.delay)

	if c.delay > 0 {
		select {
		case <-ctx.Done():
			return "", &FetchError{Site: site, Err: ctx.Err()}
		case <-time.After(c.delay):
		}
	}

	body, err := c.get(ctx, c.baseURL+site)
	if err != nil {
		return "", &FetchError{Site: site, Err: err}
	}

	return body, nil
}

// get performs a single GET request and reads the body up to the
// configured limit.
func (c *Client) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return "", err
	}

	return string(body), nil
}
