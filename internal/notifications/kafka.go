package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	transitionEventType = "pipeline.transition"
	testEventType       = "pipeline.test"
	eventSource         = "atelier"
)

// MessageWriter is the subset of *kafka.Writer used for publishing.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaService struct {
	writer MessageWriter
}

// NewKafkaService publishes transition events through writer.
func NewKafkaService(writer MessageWriter) Service {
	return &kafkaService{writer: writer}
}

func newKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// transitionMessage is the JSON value written to the transitions topic.
type transitionMessage struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	ItemID     string    `json:"itemId"`
	OwnerID    string    `json:"ownerId"`
	Action     string    `json:"action"`
	ItemTitle  string    `json:"itemTitle"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (k *kafkaService) NotifyTransition(ctx context.Context, event Event) error {
	rendered := transitionPayload(event)
	msg := transitionMessage{
		ID:         event.ID,
		Type:       transitionEventType,
		Source:     eventSource,
		ItemID:     event.ItemID,
		OwnerID:    event.OwnerID,
		Action:     event.Action,
		ItemTitle:  event.ItemTitle,
		Title:      rendered.title,
		Message:    rendered.message,
		OccurredAt: event.OccurredAt.UTC(),
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	// Keyed by item so a consumer sees one item's transitions in order.
	return k.write(ctx, event.ItemID, transitionEventType, msg)
}

func (k *kafkaService) TestNotification(ctx context.Context) error {
	msg := transitionMessage{
		ID:         uuid.NewString(),
		Type:       testEventType,
		Source:     eventSource,
		Title:      "Atelier - Test",
		Message:    "Notification system test",
		OccurredAt: time.Now().UTC(),
	}
	return k.write(ctx, msg.ID, testEventType, msg)
}

func (k *kafkaService) write(ctx context.Context, key, eventType string, value transitionMessage) error {
	if k == nil || k.writer == nil {
		return nil
	}
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal kafka event: %w", err)
	}
	message := kafka.Message{
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
			{Key: "event-id", Value: []byte(value.ID)},
			{Key: "source", Value: []byte(eventSource)},
		},
	}
	if err := k.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("publish kafka event: %w", err)
	}
	return nil
}

func (k *kafkaService) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
