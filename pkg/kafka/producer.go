// Package kafka handles workspace lifecycle event emission.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/funnelforge/funnelforge/pkg/metrics"
	"github.com/funnelforge/funnelforge/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
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

// WorkspaceEvent represents a workspace lifecycle event
type WorkspaceEvent struct {
	EventType         string          `json:"event_type"` // workspace.cloned, workspace.updated, workspace.deleted
	WorkspaceID       string          `json:"workspace_id"`
	OwnerID           string          `json:"owner_id,omitempty"`
	SourceWorkspaceID string          `json:"source_workspace_id,omitempty"`
	CloneRecordID     string          `json:"clone_record_id,omitempty"`
	Data              json.RawMessage `json:"data,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
}

// PublishWorkspaceEvent publishes a workspace event to Kafka
func (p *Producer) PublishWorkspaceEvent(ctx context.Context, event *WorkspaceEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishWorkspaceEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.WorkspaceID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "workspace_id", Value: []byte(event.WorkspaceID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.RecordKafkaPublish(p.topic, "error")
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish workspace event")
		return err
	}

	metrics.RecordKafkaPublish(p.topic, "success")
	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type":   event.EventType,
		"workspace_id": event.WorkspaceID,
	}).Debug("Published workspace event")

	return nil
}
