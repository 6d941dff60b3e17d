package cdms

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/specline-etl/internal/observability"
)

const testPayload = `   115271.2018     0.0001    -7.1425 2   0.0000   3 28503 101 1           0              CO, v=0
   230538.0000     0.0001    -6.1605 2   3.8450   5 28503 101 2           1              CO, v=0
`

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_QueryLines_Success(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cgi-bin/cdmssearch", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "028503", r.PostFormValue("Molecules"))
		assert.Equal(t, "100000", r.PostFormValue("MinNu"))
		assert.Equal(t, "250000", r.PostFormValue("MaxNu"))
		assert.Equal(t, "MHz", r.PostFormValue("UnitNu"))
		assert.Equal(t, "0", r.PostFormValue("temperature_for_intensity"))
		_, _ = w.Write([]byte(testPayload))
	}))
	defer srv.Close()

	metrics := testMetrics()
	c := NewClient(srv.URL, 5*time.Second, time.Minute, metrics, discardLogger())

	payload, err := c.QueryLines(context.Background(), 28503, 100000, 250000)
	require.NoError(t, err)
	assert.Equal(t, testPayload, payload)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CatalogRequests.WithLabelValues("cdms", "success")))

	// Second identical query is served from the cache.
	_, err = c.QueryLines(context.Background(), 28503, 100000, 250000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CatalogCache.WithLabelValues("cdms", "hit")))
}

func TestClient_QueryLines_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	metrics := testMetrics()
	c := NewClient(srv.URL, 5*time.Second, time.Minute, metrics, discardLogger())

	_, err := c.QueryLines(context.Background(), 28503, 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CatalogRequests.WithLabelValues("cdms", "error")))
}

func TestClient_FetchSpeciesTable(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/classic/predictions/catalog/partition_function.html", r.URL.Path)
		_, _ = w.Write([]byte(testListing))
	}))
	defer srv.Close()

	metrics := testMetrics()
	c := NewClient(srv.URL, 5*time.Second, time.Minute, metrics, discardLogger())

	table, err := c.FetchSpeciesTable(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Entries, 3)
	assert.Equal(t, "CO, v=0", table.Entries[0].Name)
	assert.Equal(t, 11, len(table.Temperatures))

	again, err := c.FetchSpeciesTable(context.Background())
	require.NoError(t, err)
	assert.Same(t, table, again)
	assert.Equal(t, int64(1), hits.Load())
}

func TestClient_FetchSpeciesTable_ParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	metrics := testMetrics()
	c := NewClient(srv.URL, 5*time.Second, time.Minute, metrics, discardLogger())

	_, err := c.FetchSpeciesTable(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CatalogRequests.WithLabelValues("cdms", "error")))
}
