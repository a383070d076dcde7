package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lbwsg/get-draws/internal/config"
	"github.com/lbwsg/get-draws/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Notifier publishes ArtifactWritten events to a Kafka topic.
// It implements pipeline.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured artifacts topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, logger: logger}
}

// Notify publishes a single event. Events for the same artifact share a key
// so they land on the same partition in order.
func (n *Notifier) Notify(ctx context.Context, event domain.ArtifactWritten) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish artifact event: %w", err)
	}
	n.logger.Debug("artifact event published", "topic", n.writer.Topic, "key", string(msg.Key))
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals an ArtifactWritten event into a Kafka message.
func serializeToMessage(event domain.ArtifactWritten) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize artifact event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("%d:%s", event.LocationID, event.Source)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(event.Source)},
			{Key: "run_id", Value: []byte(event.RunID)},
			{Key: "written_at", Value: []byte(event.WrittenAt.Format(time.RFC3339))},
		},
	}, nil
}
