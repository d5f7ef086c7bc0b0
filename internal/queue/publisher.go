package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends a domain event.  Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// Nop drops every event.  It is used when events are disabled.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// AMQPPublisher dials the broker for each publish, declares the durable
// queue named after the topic and sends a persistent JSON message.
type AMQPPublisher struct {
	URL    string
	Logger *slog.Logger
}

func NewAMQPPublisher(url string, logger *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Logger: logger}
}

func (p *AMQPPublisher) Publish(ctx context.Context, topic string, event any) error {
	log := p.Logger.With("topic", topic)
	body, err := json.Marshal(event)
	if err != nil {
		log.Error("marshal event failed", "err", err)
		return err
	}
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Warn("rabbitmq dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
		log.Warn("rabbitmq queue declare failed", "err", err)
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         topic,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", topic, false, false, msg); err != nil {
		log.Warn("rabbitmq publish failed", "err", err)
		return err
	}
	return nil
}
