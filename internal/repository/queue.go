package repository

import "context"

// QueuePublisher publishes raw-page message bodies to the durable queue
// named per configuration. Delivery mode is persistent; routing is direct
// to the named queue (the default exchange convention).
type QueuePublisher interface {
	Publish(ctx context.Context, body []byte) error
	Close() error
}

// QueueMessage is one delivery handed to a QueueConsumer's handler. Ack must
// be called only after the handler's upsert has committed successfully;
// Nack triggers broker redelivery (at-least-once).
type QueueMessage struct {
	Body []byte
	Ack  func() error
	Nack func(requeue bool) error
}

// QueueConsumer subscribes to the durable queue and delivers messages to
// handler until ctx is canceled.
type QueueConsumer interface {
	Consume(ctx context.Context, handler func(QueueMessage)) error
	Close() error
}
