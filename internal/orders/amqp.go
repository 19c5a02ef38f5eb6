package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m3rciful/fishbot/core/logger"
	"github.com/m3rciful/fishbot/internal/shop"
)

// DefaultQueue receives order requests when no queue name is configured.
const DefaultQueue = "orders"

const publishTimeout = 5 * time.Second

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("orders: publisher closed")

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialer opens a fresh channel and the connection that owns it.
type dialer func() (channel, io.Closer, error)

// AMQPPublisher writes JSON order requests to a durable queue.
// A publish on a closed channel redials the broker once and retries.
type AMQPPublisher struct {
	mu     sync.Mutex
	dial   dialer
	conn   io.Closer
	ch     channel
	queue  string
	closed bool
}

// DialAMQP connects to the broker at url and declares the durable queue.
func DialAMQP(url, queue string) (*AMQPPublisher, error) {
	if strings.TrimSpace(queue) == "" {
		queue = DefaultQueue
	}
	dial := func() (channel, io.Closer, error) { return connect(url, queue) }
	ch, conn, err := dial()
	if err != nil {
		return nil, err
	}
	logger.Info(logger.Background(), "orders", "broker.connected", slog.String("queue", queue))
	p := newAMQPPublisher(ch, queue)
	p.conn = conn
	p.dial = dial
	return p, nil
}

func connect(url, queue string) (channel, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("orders: dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("orders: open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("orders: declare queue %s: %w", queue, err)
	}
	return ch, conn, nil
}

func newAMQPPublisher(ch channel, queue string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, queue: queue}
}

// reconnect replaces a dead channel and connection. Callers hold p.mu.
func (p *AMQPPublisher) reconnect(ctx context.Context, cause error) error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
	ch, conn, err := p.dial()
	if err != nil {
		logger.Error(ctx, "orders", "broker.reconnect_failed",
			slog.String("queue", p.queue),
			slog.String("cause", cause.Error()),
			slog.String("err", err.Error()),
		)
		return err
	}
	p.ch, p.conn = ch, conn
	logger.Info(ctx, "orders", "broker.reconnected", slog.String("queue", p.queue))
	return nil
}

func (p *AMQPPublisher) send(ctx context.Context, msg amqp.Publishing) error {
	if p.ch == nil {
		return amqp.ErrClosed
	}
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.ch.PublishWithContext(pctx, "", p.queue, false, false, msg)
}

// Publish sends req as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, req shop.OrderRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("orders: encode request: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    req.CreatedAt,
		Body:         body,
	}
	err = p.send(ctx, msg)
	if errors.Is(err, amqp.ErrClosed) && p.dial != nil {
		if rerr := p.reconnect(ctx, err); rerr != nil {
			err = errors.Join(err, rerr)
		} else {
			err = p.send(ctx, msg)
		}
	}
	if err != nil {
		return fmt.Errorf("orders: publish to %s: %w", p.queue, err)
	}
	logger.Info(ctx, "orders", "order.published",
		slog.String("queue", p.queue),
		slog.Int("items", len(req.Items)),
		slog.String("total", req.Total.StringFixed(2)),
	)
	return nil
}

// Close releases the channel and the connection. It is safe to call twice.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
