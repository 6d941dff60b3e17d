package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/specline-etl/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte(`{"format":"jpl"}`),
		Topic:     "raw-catalog-lines",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("collector")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.JSONEq(t, `{"format":"jpl"}`, string(raw.Value))
	assert.Equal(t, "raw-catalog-lines", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "collector", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lineCount := 91
	list := &domain.LineList{
		ID:      "jpl-3f2a9c01",
		Format:  domain.FormatJPL,
		Species: domain.SpeciesIdentity{Tag: 28001, Name: "CO", LineCount: &lineCount},
		Lines: []domain.Line{
			{Species: "CO", FrequencyGHz: 115.2712018, EinsteinA: 7.2e-8, UpperStateDegeneracy: 3, UpperStateEnergyK: 5.53},
			{Species: "CO", FrequencyGHz: 230.538, EinsteinA: 6.9e-7, UpperStateDegeneracy: 5, UpperStateEnergyK: 16.6},
		},
		NormalizedAt: now,
	}

	msg, err := serializeToMessage(list)
	require.NoError(t, err)

	assert.Equal(t, []byte("jpl-3f2a9c01"), msg.Key)
	assert.Contains(t, string(msg.Value), `"frequency_ghz":115.2712018`)
	assert.Contains(t, string(msg.Value), `"species":{"tag":28001,"name":"CO","line_count":91}`)

	require.Len(t, msg.Headers, 4)
	assert.Equal(t, "format", msg.Headers[0].Key)
	assert.Equal(t, []byte("jpl"), msg.Headers[0].Value)
	assert.Equal(t, "species", msg.Headers[1].Key)
	assert.Equal(t, []byte("CO"), msg.Headers[1].Value)
	assert.Equal(t, "line_count", msg.Headers[2].Key)
	assert.Equal(t, []byte("2"), msg.Headers[2].Value)
	assert.Equal(t, "processed_at", msg.Headers[3].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[3].Value)

	var roundtrip domain.LineList
	require.NoError(t, json.Unmarshal(msg.Value, &roundtrip))

	type listSummary struct {
		ID      string
		Format  domain.Format
		Species domain.SpeciesIdentity
		Lines   []domain.Line
	}

	expected := listSummary{ID: list.ID, Format: list.Format, Species: list.Species, Lines: list.Lines}
	actual := listSummary{ID: roundtrip.ID, Format: roundtrip.Format, Species: roundtrip.Species, Lines: roundtrip.Lines}
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Fatalf("roundtrip mismatch (-want +got):\n%s", diff)
	}
}
