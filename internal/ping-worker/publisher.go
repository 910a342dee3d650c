package ping_worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"uptime_pinger/pkg/infra"

	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=publisher.go -destination=mock_publisher.go -package=ping_worker

type PingEvent struct {
	ServerID            string    `json:"server_id"`
	Success             bool      `json:"success"`
	StatusCode          *int      `json:"status_code"`
	ResponseTimeMs      int64     `json:"response_time_ms"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	AlertCreated        bool      `json:"alert_created"`
	AlertCleared        bool      `json:"alert_cleared"`
	Timestamp           time.Time `json:"timestamp"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event PingEvent) error
	Close() error
}

type kafkaEventPublisher struct {
	writer infra.KafkaWriter
}

func (k *kafkaEventPublisher) Publish(ctx context.Context, event PingEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("EventPublisher.Publish: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ServerID),
		Value: b,
	})
	if err != nil {
		return fmt.Errorf("EventPublisher.Publish: %w", err)
	}
	return nil
}

func (k *kafkaEventPublisher) Close() error {
	return k.writer.Close()
}

type noopEventPublisher struct{}

func (noopEventPublisher) Publish(context.Context, PingEvent) error { return nil }

func (noopEventPublisher) Close() error { return nil }

func NewKafkaEventPublisher(writer infra.KafkaWriter) EventPublisher {
	return &kafkaEventPublisher{writer: writer}
}

// NewNoopEventPublisher is used when no Kafka brokers are configured.
func NewNoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}
