package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dealcomb/dealcomb/app/database"
)

const (
	defaultProxyEndpoint = "https://api.scraperapi.com/"

	proxyTimeout  = 30 * time.Second
	directTimeout = 15 * time.Second

	// Responses shorter than this are treated as block pages or error stubs.
	minHTMLLength = 1000

	memoryCacheTTL = 30 * time.Minute
)

var blockMarkers = []string{
	"Access Denied",
	"Blocked",
	"Request unsuccessful",
	"Pardon Our Interruption",
}

// Client fetches HTML pages through the ScraperAPI proxy with a direct-fetch
// fallback, backed by a two-tier cache: a permanent database cache checked
// first, then an in-process TTL map.
type Client struct {
	httpClient    *http.Client
	pageRepo      database.PageRepository
	memCache      *MemoryCache
	proxyEndpoint string
	apiKey        string
	userAgent     string
}

func NewClient(pageRepo database.PageRepository, apiKey, userAgent string) *Client {
	return &Client{
		httpClient:    &http.Client{},
		pageRepo:      pageRepo,
		memCache:      NewMemoryCache(memoryCacheTTL),
		proxyEndpoint: defaultProxyEndpoint,
		apiKey:        apiKey,
		userAgent:     userAgent,
	}
}

// Fetch returns the HTML for a URL. Cached content is returned unconditionally
// (the database cache has no TTL); on a miss the page is fetched through the
// proxy, falling back to a direct request, and persisted to both caches.
func (c *Client) Fetch(ctx context.Context, pageURL string) (string, error) {
	page, err := c.pageRepo.GetPage(pageURL)
	if err != nil {
		slog.Warn("Page cache lookup failed", "url", pageURL, "error", err)
	} else if page != nil {
		slog.Debug("Page cache hit", "url", pageURL, "scraped_at", page.ScrapedAt)
		return page.HTMLContent, nil
	}

	if html, ok := c.memCache.Get(pageURL); ok {
		slog.Debug("Memory cache hit", "url", pageURL)
		return html, nil
	}

	html, proxyErr := c.fetchViaProxy(ctx, pageURL)
	if proxyErr != nil {
		slog.Debug("Proxy fetch failed, trying direct", "url", pageURL, "error", proxyErr)

		var directErr error
		html, directErr = c.fetchDirect(ctx, pageURL)
		if directErr != nil {
			return "", fmt.Errorf("proxy fetch failed (%v), direct fetch failed: %w", proxyErr, directErr)
		}
	}

	c.memCache.Set(pageURL, html)
	if err := c.pageRepo.SavePage(pageURL, html); err != nil {
		slog.Warn("Failed to persist page to cache", "url", pageURL, "error", err)
	}

	return html, nil
}

// FetchRaw performs a direct GET and returns the body without HTML validation
// or caching. Used for RSS/Atom discovery feeds, which are well below the
// minimum HTML length and never behind anti-bot protection.
func (c *Client) FetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, directTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// ClearMemoryCache drops the in-process cache layer. The database cache is
// cleared separately through the page repository.
func (c *Client) ClearMemoryCache() {
	c.memCache.Clear()
}

func (c *Client) ProxyConfigured() bool {
	return c.apiKey != ""
}

func (c *Client) fetchViaProxy(ctx context.Context, pageURL string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("scraper API key not configured")
	}

	proxyURL := c.proxyEndpoint + "?api_key=" + url.QueryEscape(c.apiKey) +
		"&url=" + url.QueryEscape(pageURL)

	timeoutCtx, cancel := context.WithTimeout(ctx, proxyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", proxyURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create proxy request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("proxy HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read proxy response: %w", err)
	}

	html := string(body)
	if err := validateHTML(html); err != nil {
		return "", fmt.Errorf("proxy returned unusable HTML: %w", err)
	}

	return html, nil
}

func (c *Client) fetchDirect(ctx context.Context, pageURL string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, directTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Browser-like headers; some target sites serve an empty shell to
	// unadorned clients.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("direct request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("direct HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read direct response: %w", err)
	}

	html := string(body)
	if len(html) < minHTMLLength {
		return "", fmt.Errorf("direct response too short: %d bytes", len(html))
	}

	return html, nil
}

func validateHTML(html string) error {
	if len(html) < minHTMLLength {
		return fmt.Errorf("response too short: %d bytes", len(html))
	}

	for _, marker := range blockMarkers {
		if strings.Contains(html, marker) {
			return fmt.Errorf("response contains block marker %q", marker)
		}
	}

	return nil
}
