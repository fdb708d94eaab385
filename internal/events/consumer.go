package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rabbitmq/amqp091-go"

	"sitetrack/internal/domain/models"
)

// Handler processes one decoded event
type Handler func(ctx context.Context, event *models.Event) error

// Consumer reads events for a set of routing keys from one durable queue
type Consumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
	handler Handler
	logger  *slog.Logger
}

// NewConsumer declares queue, binds it to every routing key and returns a
// consumer that has not started yet.
func NewConsumer(url, queue string, routingKeys []models.EventType, handler Handler, logger *slog.Logger) (*Consumer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c := &Consumer{conn: conn, channel: ch, queue: queue, handler: handler, logger: logger}

	if err := declareExchange(ch); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range routingKeys {
		if err := ch.QueueBind(q.Name, string(key), ExchangeName, false, nil); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := ch.Qos(16, 0, false); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	return c, nil
}

// Run consumes until ctx is done or the channel closes
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.channel.Consume(c.queue, "sitetrack-worker", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("consumer started", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg amqp091.Delivery) {
	var event models.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error("discarding malformed event", "routing_key", msg.RoutingKey, "error", err)
		_ = msg.Nack(false, false)
		return
	}

	if err := c.handler(ctx, &event); err != nil {
		c.logger.Error("event handler failed",
			"type", event.Type,
			"id", event.ID,
			"redelivered", msg.Redelivered,
			"error", err,
		)
		// requeue once, then drop
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}

	if err := msg.Ack(false); err != nil {
		c.logger.Warn("failed to ack event", "id", event.ID, "error", err)
	}
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
