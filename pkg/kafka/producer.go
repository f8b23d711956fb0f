package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/stayloop/bookingsim/pkg/models"
	"github.com/stayloop/bookingsim/pkg/tracing"
)

// Config holds Kafka configuration
type Config struct {
	Brokers []string
	Topic   string
}

// ParseConfig parses a comma-separated broker string
func ParseConfig(brokers string, topic string) Config {
	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}

	return Config{
		Brokers: brokerList,
		Topic:   topic,
	}
}

// Producer delivers normalized reservation events to the stream sink.
// Each cycle's accepted batch goes out in a single write.
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg Config, logger ectologger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		// Allow Kafka to auto-create the topic in dev environments when it doesn't exist yet.
		// Without this, a first publish may fail with "Unknown Topic Or Partition".
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishBatch publishes one cycle's accepted events in a single call.
// Messages are keyed by reference id so every lifecycle event of one
// reservation lands on the same partition.
func (p *Producer) PublishBatch(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "Kafka.PublishBatch")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.topic),
		attribute.String("messaging.operation", "publish"),
		attribute.Int("messaging.batch_size", len(events)),
	)

	traceparent := tracing.GetTraceParent(ctx)

	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, fmt.Sprintf("failed to marshal event %d", i))
			return fmt.Errorf("failed to marshal event %d: %w", i, err)
		}

		headers := []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "apartment_id", Value: []byte(event.ApartmentID)},
		}
		if traceparent != "" {
			headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceparent)})
		}

		messages[i] = kafka.Message{
			Key:     []byte(event.ReferenceID),
			Value:   data,
			Headers: headers,
		}
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to publish batch")
		p.logger.WithContext(ctx).WithError(err).Errorf("Failed to publish batch to Kafka topic %s", p.topic)
		return err
	}

	span.SetStatus(codes.Ok, "batch published")
	p.logger.WithContext(ctx).Infof("Published %d reservation events to Kafka", len(events))
	return nil
}

// Stats returns producer statistics
func (p *Producer) Stats() kafka.WriterStats {
	return p.writer.Stats()
}
