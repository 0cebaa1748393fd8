package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/log"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures      = 5
	openTimeout      = 30 * time.Second
	maxBackoff       = 30 * time.Second
	maxDialAttempts  = 5
	publishTimeout   = 5 * time.Second
	ledgerRoutingKey = "ledger"
)

// logger tags records with the amqp component. Resolved per call so it
// follows log.SetDefault.
func logger() *slog.Logger {
	return slog.Default().With(log.FieldComponent, log.ComponentAMQP)
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client publishes and consumes ledger events on a durable direct exchange.
// A lost connection is redialed lazily on the next publish.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	return nil
}

func setup(channel *amqp091.Channel, exchangeName, queueName string) error {
	err := channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = channel.QueueBind(
		queueName,        // queue name
		ledgerRoutingKey, // routing key
		exchangeName,     // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// ensureChannel redials with exponential backoff when the channel is gone.
func (c *Client) ensureChannel(ctx context.Context) (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()

	var lastErr error
	for attempt := 0; attempt < maxDialAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}
		if lastErr = c.connect(); lastErr == nil {
			logger().InfoContext(ctx, "AMQP connection re-established", "attempt", attempt+1)
			return c.channel, nil
		}
		logger().WarnContext(ctx, "AMQP reconnect failed", "attempt", attempt+1, "error", lastErr)
	}
	return nil, fmt.Errorf("reconnect after %d attempts: %w", maxDialAttempts, lastErr)
}

// PublishLedgerEvent publishes one event with persistent delivery.
func (c *Client) PublishLedgerEvent(ctx context.Context, ev *LedgerEvent) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", ev.Kind, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	channel, err := c.ensureChannel(ctx)
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = channel.PublishWithContext(
		ctx,
		c.exchangeName,   // exchange
		ledgerRoutingKey, // routing key
		false,            // mandatory
		false,            // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    ev.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.mu.Lock()
			c.closeLocked()
			c.mu.Unlock()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	logger().DebugContext(ctx, "Published ledger event",
		log.FieldEventKind, ev.Kind,
		"id", ev.ID,
		"exchange", c.exchangeName)
	return nil
}

// ConsumeLedgerEvents delivers events to handler until ctx is done. Handler
// errors requeue the delivery; undecodable bodies are dropped.
func (c *Client) ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *LedgerEvent) error) error {
	channel, err := c.ensureChannel(ctx)
	if err != nil {
		return err
	}

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	logger().InfoContext(ctx, "Started consuming ledger events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			logger().InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := LedgerEventFromJSON(delivery.Body)
			if err != nil {
				logger().ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, msg); err != nil {
				logger().ErrorContext(ctx, "Failed to handle message",
					"error", err,
					log.FieldEventKind, msg.Kind,
					"id", msg.ID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
			logger().DebugContext(ctx, "Processed ledger event", log.FieldEventKind, msg.Kind, "id", msg.ID)
		}
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			logger().Warn("AMQP circuit breaker opened", "failures", n)
		}
	}
}

// exponentialBackoff returns 1s doubled per attempt, capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection closed",
		"EOF",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
