package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *zap.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL        string
	OrderQueue string
}

// NewClient connects to RabbitMQ and declares the order event queue. The
// broker often comes up after the API in containerized deployments, so the
// dial is retried with backoff.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	var conn *amqp.Connection

	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var dialErr error
		conn, dialErr = amqp.Dial(cfg.URL)
		if dialErr != nil {
			logger.Warn("RabbitMQ dial failed, retrying", zap.Error(dialErr))
			return retry.RetryableError(dialErr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Durable queue so order events survive broker restarts
	if _, err := ch.QueueDeclare(cfg.OrderQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.OrderQueue, err)
	}

	logger.Info("RabbitMQ client connected", zap.String("queue", cfg.OrderQueue))

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.OrderQueue,
		logger:  logger,
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing RabbitMQ client: %v", errs)
	}
	return nil
}

// OrderCreatedEvent is the wire shape of the order event.
type OrderCreatedEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PublishOrderCreated publishes an order creation event. Satisfies
// service.OrderEventPublisher.
func (c *Client) PublishOrderCreated(order *domain.Order) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	event := OrderCreatedEvent{
		OrderID:   order.ID.String(),
		UserID:    order.UserID.String(),
		CreatedAt: order.CreatedAt,
	}
	if order.ProductID != nil {
		event.ProductID = order.ProductID.String()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	c.logger.Debug("Order event published", zap.String("order_id", event.OrderID))
	return nil
}

// ConsumeOrderEvents registers a consumer on the order queue and processes
// deliveries with the given handler. Failed deliveries are requeued once via
// Nack; successful ones are acked.
func (c *Client) ConsumeOrderEvents(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := handler(msg); err != nil {
				c.logger.Error("Order event processing failed",
					zap.Uint64("delivery_tag", msg.DeliveryTag),
					zap.Error(err),
				)
				if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
					c.logger.Error("Failed to nack delivery", zap.Error(nackErr))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				c.logger.Error("Failed to ack delivery", zap.Error(ackErr))
			}
		}
	}()

	return nil
}
