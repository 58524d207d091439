package ports

import (
	"context"

	"github.com/rabbitmq/amqp091-go"

	"gallery-api/internal/infrastructure/mq"
)

// EventPublisher is the part of the broker the services depend on.
type EventPublisher interface {
	Publish(e mq.Event) bool
}

type RabbitMQ interface {
	EventPublisher
	Connect(ctx context.Context, dsn string) error
	Init() error
	PublisherWorker(ctx context.Context)
	GetConn() *amqp091.Connection
}
