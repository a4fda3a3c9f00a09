package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yourorg/moex-data-service/internal/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CycleEvent summarizes one completed ingestion cycle
type CycleEvent struct {
	Task       string `json:"task"`
	Records    int    `json:"records"`
	DurationMs int64  `json:"duration_ms"`
	Status     string `json:"status"`
}

// Producer publishes ingestion-cycle events to a Kafka topic. With no
// brokers configured it is a no-op.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a cycle-event producer
func NewProducer(cfg config.KafkaConfig, logger *zap.Logger) *Producer {
	p := &Producer{logger: logger}
	if len(cfg.Brokers) == 0 {
		return p
	}

	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return p
}

// PublishCycle sends one cycle summary keyed by task name. Publish failures
// are logged, never surfaced: eventing must not fail an ingestion task.
func (p *Producer) PublishCycle(ctx context.Context, event CycleEvent) {
	if p.writer == nil {
		return
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal cycle event",
			zap.String("task", event.Task),
			zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.Task),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish cycle event",
			zap.String("task", event.Task),
			zap.Error(err))
	}
}

// Close releases the underlying writer
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
