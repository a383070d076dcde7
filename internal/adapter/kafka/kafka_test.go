package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lbwsg/get-draws/internal/config"
	"github.com/lbwsg/get-draws/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := domain.ArtifactWritten{
		RunID:      "run-1",
		Location:   "Global",
		LocationID: 1,
		Measure:    "exposure",
		Source:     domain.SourceExposure,
		Path:       "/data/Global_exposure.pickle",
		Rows:       46,
		WrittenAt:  now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("1:exposure"), msg.Key)
	assert.Contains(t, string(msg.Value), `"location":"Global"`)
	assert.Contains(t, string(msg.Value), `"rows":46`)

	var decoded domain.ArtifactWritten
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event, decoded)

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, kafkago.Header{Key: "source", Value: []byte("exposure")}, msg.Headers[0])
	assert.Equal(t, kafkago.Header{Key: "run_id", Value: []byte("run-1")}, msg.Headers[1])
	assert.Equal(t, "written_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestSerializeToMessage_OmitsEmptyMeasure(t *testing.T) {
	msg, err := serializeToMessage(domain.ArtifactWritten{LocationID: 163, Source: domain.SourceRR})
	require.NoError(t, err)

	assert.Equal(t, []byte("163:rr"), msg.Key)
	assert.NotContains(t, string(msg.Value), `"measure"`)
}

func TestNewNotifier_UsesConfig(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"b1:9092", "b2:9092"}, KafkaTopic: "draws-artifacts"}

	n := NewNotifier(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer n.Close()

	assert.Equal(t, "draws-artifacts", n.writer.Topic)
	assert.Equal(t, kafkago.RequireAll, n.writer.RequiredAcks)
}
