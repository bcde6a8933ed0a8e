package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes selection events to Kafka
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer for the given topic
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{writer: writer}
}

// PicksSelectedEvent announces the winners of a finalized hourly slot
type PicksSelectedEvent struct {
	EventType string   `json:"event_type"`
	Source    string   `json:"source"`
	Timestamp string   `json:"timestamp"`
	Date      string   `json:"date"`
	Hour      int      `json:"hour"`
	Winners   []string `json:"winners"`
}

// PublishPicksSelected publishes a PICKS_SELECTED event after a slot commits
func (p *Producer) PublishPicksSelected(ctx context.Context, date time.Time, hour int, winners []string) error {
	event := PicksSelectedEvent{
		EventType: "PICKS_SELECTED",
		Source:    "signal-picks-service",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Date:      date.UTC().Format("2006-01-02"),
		Hour:      hour,
		Winners:   winners,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal picks event: %w", err)
	}

	key := fmt.Sprintf("%s-%02d", event.Date, hour)
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish picks event: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
