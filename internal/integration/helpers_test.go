//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/specline-etl/internal/adapter/cdms"
	"github.com/couchcryptid/specline-etl/internal/adapter/jpl"
	"github.com/couchcryptid/specline-etl/internal/domain"
)

// startKafka launches a single-node broker in a container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	if container != nil {
		t.Cleanup(func() {
			if err := container.Terminate(context.Background()); err != nil {
				t.Logf("terminate kafka container: %v", err)
			}
		})
	}
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic via the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadEnvelopes reads the committed collector envelope fixture.
func loadEnvelopes(t *testing.T) []domain.CatalogRequest {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "catalog_requests.json"))
	require.NoError(t, err)

	var envelopes []domain.CatalogRequest
	require.NoError(t, json.Unmarshal(data, &envelopes))
	require.Len(t, envelopes, 5, "envelope fixture shape")
	return envelopes
}

// newNormalizer builds a normalizer over the committed master-table snapshots.
func newNormalizer(t *testing.T) *domain.Normalizer {
	t.Helper()

	catdir, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "jpl_catdir.cat"))
	require.NoError(t, err)
	jplTable, err := jpl.ParseCatdir(catdir)
	require.NoError(t, err)

	partfunc, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "cdms_partfunc.cat"))
	require.NoError(t, err)
	cdmsTable, err := cdms.ParsePartitionFunctions(partfunc)
	require.NoError(t, err)

	return domain.NewNormalizer(jplTable, cdmsTable)
}
