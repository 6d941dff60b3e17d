package kafka

import (
	"context"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/specline-etl/internal/config"
	"github.com/couchcryptid/specline-etl/internal/domain"
)

// Reader consumes raw catalog requests from a Kafka topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	flushInterval time.Duration
	logger        *slog.Logger
}

// NewReader creates a Kafka consumer group reader for the configured source
// topic. New groups start from the earliest offset so a fresh deployment
// works through the backlog.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		GroupID:     cfg.KafkaGroupID,
		Topic:       cfg.KafkaSourceTopic,
		StartOffset: kafkago.FirstOffset,
	})
	return &Reader{
		reader:        r,
		flushInterval: cfg.BatchFlushInterval,
		logger:        logger,
	}
}

// ExtractBatch fetches up to batchSize messages. The first fetch blocks until
// a message arrives or ctx is cancelled; the remainder are collected only
// until the flush interval expires, so a quiet topic still yields timely
// partial batches.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]domain.RawEvent, 0, batchSize)
	events = append(events, r.mapMessage(first))

	if batchSize <= 1 {
		return events, nil
	}

	fillCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	for len(events) < batchSize {
		msg, err := r.reader.FetchMessage(fillCtx)
		if err != nil {
			// Flush timeout ends the batch. Anything else is surfaced as a
			// warning; the messages already fetched are still processed and
			// the next ExtractBatch call sees the real error.
			if fillCtx.Err() == nil {
				r.logger.Warn("batch fill stopped early", "error", err)
			}
			break
		}
		events = append(events, r.mapMessage(msg))
	}

	return events, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessage converts a fetched message and attaches the consumer group
// commit callback.
func (r *Reader) mapMessage(msg kafkago.Message) domain.RawEvent {
	raw := mapMessageToRawEvent(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

// mapMessageToRawEvent converts a Kafka message into the transport-neutral
// domain form. Commit is attached by the Reader so the mapping stays pure.
func mapMessageToRawEvent(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
