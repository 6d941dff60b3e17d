package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/couchcryptid/specline-etl/internal/domain"
	"github.com/couchcryptid/specline-etl/internal/observability"
)

// LineListTransformer implements Transformer by decoding collector envelopes
// and running them through the domain normalizer.
type LineListTransformer struct {
	normalizer *domain.Normalizer
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewTransformer creates a LineListTransformer.
func NewTransformer(normalizer *domain.Normalizer, metrics *observability.Metrics, logger *slog.Logger) *LineListTransformer {
	return &LineListTransformer{
		normalizer: normalizer,
		metrics:    metrics,
		logger:     logger,
	}
}

// Transform parses one catalog request and normalizes its payload. Master
// table lookups are counted per format; a resolution miss is returned like
// any other failure so the pipeline can skip and commit the message.
func (t *LineListTransformer) Transform(_ context.Context, raw domain.RawEvent) (*domain.LineList, error) {
	req, err := domain.ParseCatalogRequest(raw)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(strings.TrimSpace(req.Format))

	list, err := t.normalizer.NormalizeRequest(req)
	switch {
	case err == nil && list.Species.Tag != 0:
		t.metrics.SpeciesLookups.WithLabelValues(format, "hit").Inc()
	case errors.Is(err, domain.ErrSpeciesNotFound):
		t.metrics.SpeciesLookups.WithLabelValues(format, "miss").Inc()
	}
	if err != nil {
		return nil, err
	}

	if len(list.Lines) == 0 {
		t.logger.Debug("normalized empty payload", "id", list.ID, "species", list.Species.Name)
	}

	return list, nil
}
