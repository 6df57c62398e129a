package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/careercompass/auth-service/internal/application/notify"
	"github.com/careercompass/auth-service/internal/logger"
	appctx "github.com/careercompass/auth-service/internal/pkg/context"
)

const (
	QueueName    = "notifications.email"
	DLQName      = "notifications.email.dlq"
	bindingKey   = "notify.#"
	attemptsKey  = "x-attempts"
	maxBodyBytes = 1 << 20
)

// Consumer drains the notification queue and drives the notify.Handler.
// Retries are republishes with a bumped attempt header; messages the handler
// gives up on go to the dead-letter queue.
type Consumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	handler  *notify.Handler
	prefetch int
	workers  int

	wg sync.WaitGroup
}

func NewConsumer(conn *amqp.Connection, exchange string, handler *notify.Handler, prefetch, workers int) (*Consumer, error) {
	if prefetch <= 0 {
		prefetch = 10
	}
	if workers <= 0 {
		workers = 5
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	return &Consumer{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		handler:  handler,
		prefetch: prefetch,
		workers:  workers,
	}, nil
}

// Start declares the topology, consumes until ctx is cancelled, then waits
// for in-flight messages.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.declareTopology(); err != nil {
		return err
	}

	if err := c.ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := c.ch.Consume(
		QueueName,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	logger.Logger.Info().
		Str("queue", QueueName).
		Int("workers", c.workers).
		Msg("notification consumer started")

	sem := make(chan struct{}, c.workers)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case d, ok := <-msgs:
			if !ok {
				break loop
			}
			sem <- struct{}{}
			c.wg.Add(1)
			go func(delivery amqp.Delivery) {
				defer func() {
					<-sem
					c.wg.Done()
				}()
				c.handleDelivery(ctx, delivery)
			}(d)
		}
	}

	logger.Logger.Info().Msg("notification consumer draining")
	c.wg.Wait()
	return nil
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	return nil
}

func (c *Consumer) declareTopology() error {
	if err := c.ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}

	if _, err := c.ch.QueueDeclare(DLQName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("dlq declare: %w", err)
	}

	if _, err := c.ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	if err := c.ch.QueueBind(QueueName, bindingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	return nil
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	msgCtx := ctx
	if d.Headers != nil {
		if reqID, ok := d.Headers["x-request-id"].(string); ok && reqID != "" {
			msgCtx = appctx.WithRequestID(ctx, reqID)
		}
	}
	lg := logger.WithCtx(msgCtx)

	if len(d.Body) > maxBodyBytes {
		lg.Error().Int("size", len(d.Body)).Msg("message body too large, dead-lettering")
		c.deadLetter(msgCtx, d, "body too large")
		_ = d.Ack(false)
		return
	}

	attempt := attemptCount(d)

	switch c.handler.Handle(msgCtx, d.Body, attempt) {
	case notify.Ack:
		_ = d.Ack(false)

	case notify.Retry:
		if err := c.republish(msgCtx, d, attempt+1); err != nil {
			lg.Error().Err(err).Msg("retry republish failed, requeueing")
			_ = d.Nack(false, true)
			return
		}
		_ = d.Ack(false)

	case notify.Drop:
		c.deadLetter(msgCtx, d, "handler gave up")
		_ = d.Ack(false)
	}
}

func attemptCount(d amqp.Delivery) int {
	if d.Headers == nil {
		return 0
	}
	switch v := d.Headers[attemptsKey].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func (c *Consumer) republish(ctx context.Context, d amqp.Delivery, attempt int) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[attemptsKey] = int32(attempt)

	return c.ch.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    time.Now(),
		Headers:      headers,
		Body:         d.Body,
	})
}

func (c *Consumer) deadLetter(ctx context.Context, d amqp.Delivery, reason string) {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers["x-death-reason"] = reason

	if err := c.ch.PublishWithContext(ctx, "", DLQName, false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    time.Now(),
		Headers:      headers,
		Body:         d.Body,
	}); err != nil {
		logger.WithCtx(ctx).Error().Err(err).Msg("dead-letter publish failed, message lost after ack")
	}
}
