package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LogFileName is the file, under the consumer's directory, receiving one
// line per event.
const LogFileName = "reservation.log"

// Consumer listens on every topic queue and appends each event to
// Dir/reservation.log.
type Consumer struct {
	URL    string
	Dir    string
	Logger *slog.Logger
}

func NewConsumer(url, dir string, logger *slog.Logger) *Consumer {
	return &Consumer{URL: url, Dir: dir, Logger: logger}
}

// Run keeps a connection to the broker open until ctx is cancelled,
// reconnecting with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warn("event consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warn("event consumer: loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Warn("event consumer: set QoS failed", "err", err)
	}

	type delivery struct {
		topic string
		msg   amqp.Delivery
	}
	in := make(chan delivery)
	var wg sync.WaitGroup
	for _, topic := range Topics {
		if _, err := ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", topic, err)
		}
		msgs, err := ch.Consume(topic, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", topic, err)
		}
		wg.Add(1)
		go func(topic string, msgs <-chan amqp.Delivery) {
			defer wg.Done()
			for m := range msgs {
				select {
				case in <- delivery{topic: topic, msg: m}:
				case <-ctx.Done():
					return
				}
			}
		}(topic, msgs)
	}
	closed := make(chan struct{})
	go func() {
		wg.Wait()
		close(closed)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-closed:
			return errors.New("deliveries channel closed")
		case d := <-in:
			if err := c.Handle(d.topic, d.msg.Body); err != nil {
				c.Logger.Error("event consumer: handle message failed", "topic", d.topic, "err", err)
				_ = d.msg.Nack(false, false) // no requeue, avoids a poison loop
				continue
			}
			_ = d.msg.Ack(false)
		}
	}
}

// Handle formats one message and appends it to the log file.
func (c *Consumer) Handle(topic string, body []byte) error {
	line, err := FormatLine(topic, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.Dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.Dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
