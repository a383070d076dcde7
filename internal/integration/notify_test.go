//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/lbwsg/get-draws/internal/adapter/artifact"
	"github.com/lbwsg/get-draws/internal/adapter/gbd"
	"github.com/lbwsg/get-draws/internal/adapter/gbdfake"
	kafkaadapter "github.com/lbwsg/get-draws/internal/adapter/kafka"
	"github.com/lbwsg/get-draws/internal/config"
	"github.com/lbwsg/get-draws/internal/domain"
	"github.com/lbwsg/get-draws/internal/observability"
	"github.com/lbwsg/get-draws/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-draws-artifacts"

// TestPipelinePublishesArtifactEvent pulls draws from the fake service,
// writes the artifact, and reads the resulting event back from Kafka.
func TestPipelinePublishesArtifactEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := httptest.NewServer(gbdfake.NewServer(":0", gbdfake.DefaultDataset(10), logger))
	defer fake.Close()

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	notifier := kafkaadapter.NewNotifier(cfg, logger)
	defer notifier.Close()

	metrics := observability.NewMetrics()
	client := gbd.NewClient(fake.URL, "", 10*time.Second, metrics, logger)
	p := pipeline.New(client, client, artifact.NewStore(), logger, metrics, pipeline.WithNotifier(notifier))

	path := filepath.Join(t.TempDir(), "Beijing_exposure.pickle")
	res, err := p.Run(ctx, pipeline.Job{
		Location: "Beijing",
		Measure:  domain.MeasureExposure,
		Source:   domain.SourceExposure,
		Path:     path,
	})
	require.NoError(t, err)
	assert.Equal(t, 491, res.LocationID)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	defer consumer.Close()

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read artifact event")

	var event domain.ArtifactWritten
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, res.RunID, event.RunID)
	assert.Equal(t, 491, event.LocationID)
	assert.Equal(t, "exposure", event.Measure)
	assert.Equal(t, path, event.Path)
	assert.Equal(t, res.Rows, event.Rows)
	assert.Equal(t, "491:exposure", string(msg.Key))

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, res.RunID, headers["run_id"])
	assert.Equal(t, "exposure", headers["source"])
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0", kafka.WithClusterID("get-draws-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

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
