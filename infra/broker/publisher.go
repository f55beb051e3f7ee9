package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"reload-gateway/internal/core/domain/entity"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the subset of *amqp.Channel the publisher needs.
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQPublisher sends reload events to a topic exchange, using the event
// type as routing key.
type RabbitMQPublisher struct {
	channel  AMQPChannel
	exchange string
}

func NewRabbitMQPublisher(ch AMQPChannel, exchange string) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		channel:  ch,
		exchange: exchange,
	}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event *entity.ReloadEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		event.Type,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Headers: amqp.Table{
				"event_type": event.Type,
				"reference":  event.Reference,
				"network":    string(event.Network),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}

	return nil
}
