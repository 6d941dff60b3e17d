// Package jpl queries the JPL Molecular Spectroscopy service: the catform
// line-search endpoint and the catdir.cat master directory.
package jpl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/couchcryptid/specline-etl/internal/domain"
	"github.com/couchcryptid/specline-etl/internal/observability"
)

const speciesTableKey = "species-table"

// Client talks to the JPL catalog service. Responses are cached with a TTL
// so repeated queries and table refetches do not hammer the service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *gocache.Cache
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a JPL catalog client.
func NewClient(baseURL string, timeout, cacheTTL time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
		metrics:    metrics,
		logger:     logger,
	}
}

// QueryLines fetches the raw fixed-width catalog rows for one species tag
// within a frequency window, in MHz. An empty payload means the window holds
// no catalogued lines; it is not an error.
func (c *Client) QueryLines(ctx context.Context, tag int, minMHz, maxMHz float64) (string, error) {
	key := fmt.Sprintf("lines:%d:%.3f-%.3f", tag, minMHz, maxMHz)
	if cached, found := c.cache.Get(key); found {
		c.metrics.CatalogCache.WithLabelValues("jpl", "hit").Inc()
		return cached.(string), nil
	}
	c.metrics.CatalogCache.WithLabelValues("jpl", "miss").Inc()

	form := url.Values{
		"Mol":    {strconv.Itoa(tag)},
		"MinNu":  {strconv.FormatFloat(minMHz, 'f', -1, 64)},
		"MaxNu":  {strconv.FormatFloat(maxMHz, 'f', -1, 64)},
		"UnitNu": {"MHz"},
		"StrLim": {"-500"}, // no intensity cutoff
	}

	body, err := c.postForm(ctx, c.baseURL+"/cgi-bin/catform", form)
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues("jpl", "error").Inc()
		return "", err
	}

	payload := string(body)
	outcome := "success"
	if strings.TrimSpace(payload) == "" {
		outcome = "empty"
	}
	c.metrics.CatalogRequests.WithLabelValues("jpl", outcome).Inc()

	c.cache.Set(key, payload, gocache.DefaultExpiration)
	return payload, nil
}

// FetchSpeciesTable downloads and parses the catdir.cat master directory.
func (c *Client) FetchSpeciesTable(ctx context.Context) (*domain.JPLSpeciesTable, error) {
	if cached, found := c.cache.Get(speciesTableKey); found {
		c.metrics.CatalogCache.WithLabelValues("jpl", "hit").Inc()
		return cached.(*domain.JPLSpeciesTable), nil
	}
	c.metrics.CatalogCache.WithLabelValues("jpl", "miss").Inc()

	body, err := c.get(ctx, c.baseURL+"/ftp/pub/catalog/catdir.cat")
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues("jpl", "error").Inc()
		return nil, err
	}

	table, err := ParseCatdir(body)
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues("jpl", "error").Inc()
		return nil, err
	}
	c.metrics.CatalogRequests.WithLabelValues("jpl", "success").Inc()

	c.cache.Set(speciesTableKey, table, gocache.DefaultExpiration)
	c.logger.Info("jpl species table loaded", "entries", len(table.Entries))
	return table, nil
}

func (c *Client) postForm(ctx context.Context, fullURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.CatalogAPIDuration.WithLabelValues("jpl").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("jpl catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jpl catalog error: status %d: %s", resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}
