// Package amqp implements the durable raw-page queue (§6) on top of
// RabbitMQ: a publisher for C1 and a consumer for C2, both against a
// single durable queue bound to the default exchange, grounded on
// original_source/crawler/fetch_async.py's aio_pika.Message(delivery_mode
// =PERSISTENT, routing_key=queue_name) publish and store.py's
// queue.consume(process_message) (message.process() acks only once the
// handler returns without raising).
package amqp

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"newsfeed/internal/repository"
)

// Config names the broker connection and queue.
type Config struct {
	URL           string
	QueueName     string
	DeadLetter    string // optional; empty disables dead-lettering
	PrefetchCount int
}

// Publisher publishes raw-page messages with persistent delivery mode to
// the default exchange, routed by queue name.
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewPublisher connects to cfg.URL, declares cfg.QueueName durable, and
// returns a Publisher bound to it. If cfg.DeadLetter is set, the queue is
// declared with that exchange as its dead-letter target (§9, Open Question 4).
func NewPublisher(cfg Config) (repository.QueuePublisher, error) {
	conn, ch, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: cfg.QueueName}, nil
}

// Publish sends body as a persistent message to the queue, using the
// default exchange with the queue name as routing key.
func (p *Publisher) Publish(ctx context.Context, body []byte) error {
	err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", p.queue, err)
	}
	return nil
}

// Close tears down the channel and connection.
func (p *Publisher) Close() error {
	chErr := p.ch.Close()
	connErr := p.conn.Close()
	if chErr != nil {
		return fmt.Errorf("closing channel: %w", chErr)
	}
	if connErr != nil {
		return fmt.Errorf("closing connection: %w", connErr)
	}
	return nil
}

// Consumer subscribes to the durable queue and hands each delivery to a
// caller-supplied handler, matching repository.QueueConsumer.
type Consumer struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	queue         string
	prefetchCount int
}

// NewConsumer connects to cfg.URL and declares cfg.QueueName exactly as
// NewPublisher does, so either side may be the first to start.
func NewConsumer(cfg Config) (repository.QueueConsumer, error) {
	conn, ch, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = 10
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("setting QoS: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: cfg.QueueName, prefetchCount: prefetch}, nil
}

// Consume blocks, delivering each message to handler until ctx is
// canceled. handler must call msg.Ack only after its own processing
// (e.g. the article upsert) has committed — mirroring store.py's
// `async with message.process()` acking on success and nacking on
// exception.
func (c *Consumer) Consume(ctx context.Context, handler func(msg repository.QueueMessage)) error {
	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("starting consume on %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", c.queue)
			}
			delivery := d
			handler(repository.QueueMessage{
				Body: delivery.Body,
				Ack:  func() error { return delivery.Ack(false) },
				Nack: func(requeue bool) error { return delivery.Nack(false, requeue) },
			})
		}
	}
}

// Close tears down the channel and connection.
func (c *Consumer) Close() error {
	chErr := c.ch.Close()
	connErr := c.conn.Close()
	if chErr != nil {
		return fmt.Errorf("closing channel: %w", chErr)
	}
	if connErr != nil {
		return fmt.Errorf("closing connection: %w", connErr)
	}
	return nil
}

func dial(cfg Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing %s: %w", cfg.QueueName, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("opening channel: %w", err)
	}

	args := amqp.Table{}
	if cfg.DeadLetter != "" {
		args["x-dead-letter-exchange"] = cfg.DeadLetter
	}

	if _, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, args); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declaring queue %s: %w", cfg.QueueName, err)
	}

	return conn, ch, nil
}
