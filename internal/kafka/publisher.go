// Package kafka публикует и потребляет события активностей через Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

// Writer часть *kafka.Writer, нужная для публикации.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher отправляет события о новых активностях в топик.
type Publisher struct {
	writer Writer
}

// NewWriter создаёт writer для топика topic. Сообщения с одним ключом попадают в одну партицию.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// NewPublisher создаёт Publisher поверх writer.
func NewPublisher(writer Writer) *Publisher {
	return &Publisher{writer: writer}
}

// Publish отправляет событие; ключ сообщения - идентификатор пользователя.
func (p *Publisher) Publish(ctx context.Context, event models.ActivitySubmittedEvent) error {
	const op = "kafka.Publish"
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(models.EventActivitySubmitted)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
