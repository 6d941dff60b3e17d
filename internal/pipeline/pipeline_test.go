package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/specline-etl/internal/domain"
	"github.com/couchcryptid/specline-etl/internal/observability"
	"github.com/couchcryptid/specline-etl/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err     error
	failKey string
	calls   atomic.Int64
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (*domain.LineList, error) {
	m.calls.Add(1)
	if m.err != nil && (m.failKey == "" || string(raw.Key) == m.failKey) {
		return nil, m.err
	}
	return &domain.LineList{
		ID:     string(raw.Key),
		Format: domain.FormatJPL,
		Lines:  []domain.Line{{Species: "CO", FrequencyGHz: 115.2712018}},
	}, nil
}

// slowTransformer finishes later messages first so ordering bugs surface.
type slowTransformer struct{}

func (slowTransformer) Transform(_ context.Context, raw domain.RawEvent) (*domain.LineList, error) {
	idx, err := strconv.Atoi(strings.TrimPrefix(string(raw.Key), "evt-"))
	if err != nil {
		return nil, err
	}
	time.Sleep(time.Duration(16-2*idx) * time.Millisecond)
	return &domain.LineList{ID: string(raw.Key)}, nil
}

type mockLoader struct {
	loaded []*domain.LineList
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, lists []*domain.LineList) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, lists...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	batch := []domain.RawEvent{
		makeCatalogEvent(t, "evt-1"),
		makeCatalogEvent(t, "evt-2"),
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{batch}}
	tfm := &mockTransformer{}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, "evt-1", ldr.loaded[0].ID)
	assert.Equal(t, "evt-2", ldr.loaded[1].ID)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	tfm := &mockTransformer{}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	var committed []string
	raw := makeCatalogEvent(t, "evt-3")
	raw.Commit = func(_ context.Context) error {
		committed = append(committed, "evt-3")
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	tfm := &mockTransformer{err: errors.New("bad data")}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.Equal(t, []string{"evt-3"}, committed, "poison messages must be committed so they are not redelivered")
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
}

func TestPipeline_Run_PartialFailureKeepsSiblings(t *testing.T) {
	var committed []string
	batch := make([]domain.RawEvent, 0, 3)
	for _, key := range []string{"evt-1", "evt-2", "evt-3"} {
		raw := makeCatalogEvent(t, key)
		raw.Commit = func(_ context.Context) error {
			committed = append(committed, string(raw.Key))
			return nil
		}
		batch = append(batch, raw)
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{batch}}
	tfm := &mockTransformer{err: errors.New("bad data"), failKey: "evt-2"}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)

	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, "evt-1", ldr.loaded[0].ID)
	assert.Equal(t, "evt-3", ldr.loaded[1].ID)
	assert.ElementsMatch(t, []string{"evt-1", "evt-2", "evt-3"}, committed)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
}

func TestPipeline_Run_PreservesBatchOrderAcrossWorkers(t *testing.T) {
	batch := make([]domain.RawEvent, 0, 8)
	for i := range 8 {
		batch = append(batch, makeCatalogEvent(t, fmt.Sprintf("evt-%d", i)))
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{batch}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, slowTransformer{}, ldr, slog.Default(), metrics, 10, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)

	require.Len(t, ldr.loaded, 8)
	for i, list := range ldr.loaded {
		assert.Equal(t, fmt.Sprintf("evt-%d", i), list.ID)
	}
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	commitCalled := false

	raw := makeCatalogEvent(t, "evt-5")
	raw.Topic = "raw-catalog-lines"
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	tfm := &mockTransformer{}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.True(t, commitCalled)
}

func TestPipeline_Run_LoadErrorLeavesUncommitted(t *testing.T) {
	commitCalled := false

	raw := makeCatalogEvent(t, "evt-6")
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	tfm := &mockTransformer{}
	ldr := &mockLoader{err: errors.New("broker down")}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.False(t, commitCalled, "uncommitted offsets are how failed loads get redelivered")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestLineListTransformer_Transform(t *testing.T) {
	table := &domain.JPLSpeciesTable{
		Temperatures: []float64{300, 225, 150, 75, 37.5, 18.75, 9.375},
		Entries: []domain.JPLSpeciesEntry{
			{Tag: 28001, Name: "CO", LineCount: 91, LogQ: []float64{2.0369, 1.9123, 1.7370, 1.4386, 1.1429, 0.8526, 0.5733}},
		},
	}

	t.Run("master table hit", func(t *testing.T) {
		metrics := newTestMetrics()
		tfm := pipeline.NewTransformer(domain.NewNormalizer(table, nil), metrics, slog.Default())

		raw := makeRequestEvent(t, domain.CatalogRequest{Format: "JPL", Payload: jplPayload("-28001")})
		list, err := tfm.Transform(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, "CO", list.Species.Name)
		assert.Equal(t, 28001, list.Species.Tag)
		require.Len(t, list.Lines, 1)

		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SpeciesLookups.WithLabelValues("jpl", "hit")))
		assert.Equal(t, 0.0, testutil.ToFloat64(metrics.SpeciesLookups.WithLabelValues("jpl", "miss")))
	})

	t.Run("master table miss", func(t *testing.T) {
		metrics := newTestMetrics()
		tfm := pipeline.NewTransformer(domain.NewNormalizer(table, nil), metrics, slog.Default())

		raw := makeRequestEvent(t, domain.CatalogRequest{Format: "jpl", Payload: jplPayload("99999")})
		_, err := tfm.Transform(context.Background(), raw)
		require.ErrorIs(t, err, domain.ErrSpeciesNotFound)

		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SpeciesLookups.WithLabelValues("jpl", "miss")))
	})

	t.Run("caller species bypasses the lookup counters", func(t *testing.T) {
		metrics := newTestMetrics()
		tfm := pipeline.NewTransformer(domain.NewNormalizer(nil, nil), metrics, slog.Default())

		raw := makeRequestEvent(t, domain.CatalogRequest{
			Format:                "jpl",
			Payload:               jplPayload("-28001"),
			Species:               "CO",
			PartitionTemperatures: []float64{9.375, 75, 150, 300},
			PartitionValues:       []float64{3.74, 27.45, 54.58, 108.87},
		})
		list, err := tfm.Transform(context.Background(), raw)
		require.NoError(t, err)
		assert.Zero(t, list.Species.Tag)

		assert.Equal(t, 0.0, testutil.ToFloat64(metrics.SpeciesLookups.WithLabelValues("jpl", "hit")))
		assert.Equal(t, 0.0, testutil.ToFloat64(metrics.SpeciesLookups.WithLabelValues("jpl", "miss")))
	})

	t.Run("malformed envelope", func(t *testing.T) {
		metrics := newTestMetrics()
		tfm := pipeline.NewTransformer(domain.NewNormalizer(table, nil), metrics, slog.Default())

		_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("{nope")})
		assert.Error(t, err)
	})
}

// --- helpers ---

func makeCatalogEvent(t *testing.T, key string) domain.RawEvent {
	t.Helper()
	raw := makeRequestEvent(t, domain.CatalogRequest{Format: "jpl", Payload: jplPayload("-28001")})
	raw.Key = []byte(key)
	return raw
}

func makeRequestEvent(t *testing.T, req domain.CatalogRequest) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte("evt"),
		Value: data,
		Topic: "raw-catalog-lines",
	}
}

// jplPayload renders one CO rotational line in the fixed-width catalog layout.
func jplPayload(tag string) string {
	return fmt.Sprintf("%13s%8s%8s%2s%10s%3s%7s%4s%-12s%s",
		"115271.2018", "0.0005", "-5.0105", "2", "0.0000", "3", tag, "101", " 1", " 0")
}
