package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	applog "github.com/tazhibayda/profile-service/internal/log"
)

const requestIDHeader = "X-Request-ID"

type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	q    string
}

// Handler processes one delivery. A non-nil error requeues the message.
type Handler func(ctx context.Context, key string, body []byte) error

func NewConsumer(url, exchange, queue, key string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbit: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	fail := func(step string, err error) (*Consumer, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}
	qd, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}
	if err := ch.QueueBind(qd.Name, key, exchange, false, nil); err != nil {
		return fail("bind queue", err)
	}

	return &Consumer{conn: conn, ch: ch, q: qd.Name}, nil
}

func (c *Consumer) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Consume runs workers until ctx is done or the delivery channel closes.
func (c *Consumer) Consume(ctx context.Context, workers int, handle Handler) error {
	if c == nil || c.ch == nil {
		return fmt.Errorf("consumer is not initialized")
	}
	if workers <= 0 {
		workers = 1
	}

	if err := c.ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	msgs, err := c.ch.Consume(c.q, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case d, ok := <-msgs:
					if !ok {
						return
					}
					dispatch(ctx, d, handle)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	wg.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return errors.New("delivery channel closed")
}

type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func dispatch(ctx context.Context, d amqp.Delivery, handle Handler) {
	if id, ok := d.Headers[requestIDHeader].(string); ok && id != "" {
		ctx = applog.WithRequestID(ctx, id)
	}
	settle(d, d.Redelivered, handle(ctx, d.RoutingKey, d.Body))
}

// settle acks on success. A failed first delivery is requeued once; a failed
// redelivery is dropped so a poison message cannot loop forever.
func settle(d acker, redelivered bool, err error) {
	switch {
	case err == nil:
		_ = d.Ack(false)
	case redelivered:
		_ = d.Nack(false, false)
	default:
		_ = d.Nack(false, true)
	}
}
