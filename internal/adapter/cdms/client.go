// Package cdms queries the Cologne Database for Molecular Spectroscopy: the
// cdmssearch line-search endpoint and the classic partition function listing.
package cdms

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

// Client talks to the CDMS catalog service. Responses are cached with a TTL
// so repeated queries and table refetches do not hammer the service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *gocache.Cache
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a CDMS catalog client.
func NewClient(baseURL string, timeout, cacheTTL time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
		metrics:    metrics,
		logger:     logger,
	}
}

// QueryLines fetches the raw fixed-width catalog rows for one species within
// a frequency window, in MHz. tag is the six-digit CDMS identifier whose
// leading digits encode the molecular weight. Intensity is requested at
// temperature zero, which makes the service emit lg(A) instead of lg(I).
// An empty payload means the window holds no catalogued lines.
func (c *Client) QueryLines(ctx context.Context, tag int, minMHz, maxMHz float64) (string, error) {
	key := fmt.Sprintf("lines:%d:%.3f-%.3f", tag, minMHz, maxMHz)
	if cached, found := c.cache.Get(key); found {
		c.metrics.CatalogCache.WithLabelValues("cdms", "hit").Inc()
		return cached.(string), nil
	}
	c.metrics.CatalogCache.WithLabelValues("cdms", "miss").Inc()

	form := url.Values{
		"Molecules":                 {fmt.Sprintf("%06d", tag)},
		"MinNu":                     {strconv.FormatFloat(minMHz, 'f', -1, 64)},
		"MaxNu":                     {strconv.FormatFloat(maxMHz, 'f', -1, 64)},
		"UnitNu":                    {"MHz"},
		"temperature_for_intensity": {"0"},
	}

	body, err := c.postForm(ctx, c.baseURL+"/cgi-bin/cdmssearch", form)
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues("cdms", "error").Inc()
		return "", err
	}

	payload := string(body)
	outcome := "success"
	if strings.TrimSpace(payload) == "" {
		outcome = "empty"
	}
	c.metrics.CatalogRequests.WithLabelValues("cdms", outcome).Inc()

	c.cache.Set(key, payload, gocache.DefaultExpiration)
	return payload, nil
}

// FetchSpeciesTable downloads and parses the classic partition function
// listing.
func (c *Client) FetchSpeciesTable(ctx context.Context) (*domain.CDMSSpeciesTable, error) {
	if cached, found := c.cache.Get(speciesTableKey); found {
		c.metrics.CatalogCache.WithLabelValues("cdms", "hit").Inc()
		return cached.(*domain.CDMSSpeciesTable), nil
	}
	c.metrics.CatalogCache.WithLabelValues("cdms", "miss").Inc()

	body, err := c.get(ctx, c.baseURL+"/classic/predictions/catalog/partition_function.html")
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues("cdms", "error").Inc()
		return nil, err
	}

	table, err := ParsePartitionFunctions(body)
	if err != nil {
		c.metrics.CatalogRequests.WithLabelValues("cdms", "error").Inc()
		return nil, err
	}
	c.metrics.CatalogRequests.WithLabelValues("cdms", "success").Inc()

	c.cache.Set(speciesTableKey, table, gocache.DefaultExpiration)
	c.logger.Info("cdms species table loaded", "entries", len(table.Entries))
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
	c.metrics.CatalogAPIDuration.WithLabelValues("cdms").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("cdms catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cdms catalog error: status %d: %s", resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}
