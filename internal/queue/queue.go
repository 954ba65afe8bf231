package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// consumerPrefetch bounds unacked recompute events held by one consumer.
const consumerPrefetch = 8

var (
	ErrNoURL  = errors.New("rabbitmq url is empty")
	ErrClosed = errors.New("rabbitmq connection is closed")
)

// Client owns one broker connection and a single channel shared by the event
// emitter, the daemon consumer and the cron drain. It carries recompute
// events (sold counts, review aggregates) between the API and the workers.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func New(url string) (*Client, error) {
	if url == "" {
		return nil, ErrNoURL
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsClosed reports whether the broker connection is gone. A nil Client counts
// as closed.
func (c *Client) IsClosed() bool {
	return c == nil || c.conn == nil || c.conn.IsClosed()
}

// EnsureExchange declares a durable topic exchange for event routing keys.
func (c *Client) EnsureExchange(name string) error {
	return c.EnsureExchangeKind(name, "topic")
}

func (c *Client) EnsureExchangeKind(name string, kind string) error {
	if kind == "" {
		kind = "topic"
	}
	return c.ch.ExchangeDeclare(name, kind, true, false, false, false, nil)
}

// EnsureQueue declares a durable, non-exclusive queue with no extra
// arguments. It is idempotent as long as an existing queue of the same name
// was declared with the same flags.
func (c *Client) EnsureQueue(name string) (amqp.Queue, error) {
	return c.EnsureQueueWithArgs(name, nil)
}

// EnsureQueueWithArgs is EnsureQueue with declare arguments such as the
// dead-letter exchange.
func (c *Client) EnsureQueueWithArgs(name string, args amqp.Table) (amqp.Queue, error) {
	return c.ch.QueueDeclare(name, true, false, false, false, args)
}

func (c *Client) BindQueue(queueName, exchange, routingKey string) error {
	return c.ch.QueueBind(queueName, routingKey, exchange, false, nil)
}

// PublishJSON publishes a persistent JSON message with a fresh message id.
func (c *Client) PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error {
	if c.IsClosed() {
		return ErrClosed
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Body:         body,
		Timestamp:    time.Now(),
	})
}

// Get pulls at most one message from queue without auto-ack; ok is false when
// the queue is empty. The caller must Ack or Nack the delivery. The cron drain
// uses it in place of a long-lived consumer.
func (c *Client) Get(queue string) (msg amqp.Delivery, ok bool, err error) {
	if c.IsClosed() {
		return amqp.Delivery{}, false, ErrClosed
	}
	return c.ch.Get(queue, false)
}
