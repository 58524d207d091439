package rmqconsumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"gallery-api/config"
)

// can scale depends on a parallel worker count
const preFetchCount = 1

// Handler processes one delivery. A nil error acks the message; any error
// nacks it without requeue so a poisoned job cannot loop forever.
type Handler func(ctx context.Context, routingKey string, body []byte) error

type Consumer struct {
	cfg         config.MQ
	log         *zap.Logger
	conn        *amqp091.Connection
	chConsume   *amqp091.Channel
	chDelivery  <-chan amqp091.Delivery
	routingKeys []string
	handle      Handler
}

// New builds a consumer for routingKeys. When conn is non-nil Connect reuses
// it instead of dialing again.
func New(cfg config.MQ, logger *zap.Logger, conn *amqp091.Connection, handle Handler, routingKeys ...string) *Consumer {
	return &Consumer{
		cfg:         cfg,
		log:         logger,
		conn:        conn,
		routingKeys: routingKeys,
		handle:      handle,
	}
}

func (c *Consumer) Connect(dsn string) error {
	var err error
	if c.conn == nil || c.conn.IsClosed() {
		c.conn, err = amqp091.Dial(dsn)
		if err != nil {
			c.conn = nil
			return fmt.Errorf("amqp dial: %w", err)
		}
	}
	c.chConsume, err = c.conn.Channel()
	if err != nil {
		_ = c.conn.Close()
		c.conn = nil
		return fmt.Errorf("amqp channel: %w", err)
	}

	c.log.Info("rabbitmq consumer connected successfully")

	return nil
}

func (c *Consumer) Init() error {
	if c.chConsume == nil {
		return errors.New("consumer is not connected")
	}
	if err := c.chConsume.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := c.chConsume.QueueDeclare(
		c.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, rk := range c.routingKeys {
		if err := c.chConsume.QueueBind(
			c.cfg.QueueName,
			rk,
			c.cfg.Exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	if err := c.chConsume.Qos(preFetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	var err error
	c.chDelivery, err = c.chConsume.Consume(
		c.cfg.QueueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	return nil
}

func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				// alert
				c.log.Error("mq delivery channel closed")
				return
			}
			if err := c.delivery(ctx, msg); err != nil {
				// alert
				c.log.Error("mq read message error", zap.Error(err))
			}
		case <-ctx.Done():
			if c.chConsume != nil {
				_ = c.chConsume.Close()
			}
			return
		}
	}
}

func (c *Consumer) delivery(ctx context.Context, msg amqp091.Delivery) error {
	if err := c.handle(ctx, msg.RoutingKey, msg.Body); err != nil {
		if nerr := msg.Nack(false, false); nerr != nil {
			return errors.Join(err, fmt.Errorf("nack: %w", nerr))
		}
		return fmt.Errorf("handle %s: %w", msg.RoutingKey, err)
	}
	if err := msg.Ack(false); err != nil {
		return fmt.Errorf("ack: %w", err)
	}

	return nil
}
