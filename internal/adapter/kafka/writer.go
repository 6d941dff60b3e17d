package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/specline-etl/internal/config"
	"github.com/couchcryptid/specline-etl/internal/domain"
)

// Writer produces messages to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple line lists to the sink Kafka
// topic in a single WriteMessages call for efficiency.
func (w *Writer) LoadBatch(ctx context.Context, lists []*domain.LineList) error {
	if len(lists) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(lists))
	for i := range lists {
		msg, err := serializeToMessage(lists[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a LineList into a Kafka message. Headers carry
// the routing metadata so consumers can filter without decoding the body.
func serializeToMessage(list *domain.LineList) (kafkago.Message, error) {
	data, err := json.Marshal(list)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize line list: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(list.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "format", Value: []byte(list.Format)},
			{Key: "species", Value: []byte(list.Species.Name)},
			{Key: "line_count", Value: []byte(strconv.Itoa(len(list.Lines)))},
			{Key: "processed_at", Value: []byte(list.NormalizedAt.Format(time.RFC3339))},
		},
	}, nil
}
