package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"reload-gateway/internal/core/domain/entity"
)

var ErrDeliveriesClosed = errors.New("delivery channel closed")

// AMQPConsumerChannel is the subset of *amqp.Channel the consumer needs.
type AMQPConsumerChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type EventHandler func(ctx context.Context, event *entity.ReloadEvent) error

type ConsumerConfig struct {
	Exchange   string
	Queue      string
	BindingKey string
}

// EventConsumer reads reload events from a durable queue bound to the
// events exchange. Undecodable messages are dropped; handler failures are
// requeued once, then dropped on redelivery.
type EventConsumer struct {
	channel AMQPConsumerChannel
	cfg     ConsumerConfig
	handle  EventHandler
	logger  *slog.Logger
}

func NewEventConsumer(ch AMQPConsumerChannel, cfg ConsumerConfig, handle EventHandler, logger *slog.Logger) *EventConsumer {
	if cfg.BindingKey == "" {
		cfg.BindingKey = "reload.#"
	}
	return &EventConsumer{channel: ch, cfg: cfg, handle: handle, logger: logger}
}

func (c *EventConsumer) Setup() error {
	q, err := c.channel.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", c.cfg.Queue, err)
	}
	c.cfg.Queue = q.Name

	if err := c.channel.QueueBind(q.Name, c.cfg.BindingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", q.Name, c.cfg.Exchange, err)
	}
	return nil
}

// Run consumes until ctx is done or the broker closes the channel.
func (c *EventConsumer) Run(ctx context.Context) error {
	msgs, err := c.channel.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	c.logger.InfoContext(ctx, "event consumer started",
		slog.String("queue", c.cfg.Queue),
		slog.String("binding_key", c.cfg.BindingKey),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.deliver(ctx, msg)
		}
	}
}

func (c *EventConsumer) deliver(ctx context.Context, msg amqp.Delivery) {
	var event entity.ReloadEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.ErrorContext(ctx, "dropping undecodable event",
			slog.String("message_id", msg.MessageId),
			slog.String("error", err.Error()),
		)
		c.settle(ctx, msg, "nack", msg.Nack(false, false))
		return
	}

	if err := c.handle(ctx, &event); err != nil {
		c.logger.ErrorContext(ctx, "event handler failed",
			slog.String("event_id", event.ID),
			slog.String("reference", event.Reference),
			slog.Bool("redelivered", msg.Redelivered),
			slog.String("error", err.Error()),
		)
		c.settle(ctx, msg, "nack", msg.Nack(false, !msg.Redelivered))
		return
	}

	c.settle(ctx, msg, "ack", msg.Ack(false))
}

// settle logs a failed ack or nack. The broker redelivers the message once
// the channel closes, so nothing else is done about it.
func (c *EventConsumer) settle(ctx context.Context, msg amqp.Delivery, action string, err error) {
	if err == nil {
		return
	}
	c.logger.WarnContext(ctx, "failed to settle delivery",
		slog.String("action", action),
		slog.Uint64("delivery_tag", msg.DeliveryTag),
		slog.String("message_id", msg.MessageId),
		slog.String("error", err.Error()),
	)
}
