package queue

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	retryCountHeader = "x-retry-count"
	routingKeyHeader = "x-original-routing-key"
)

// HandlerFunc processes one message. routingKey is the key the message was
// first published with, also across retries.
type HandlerFunc func(ctx context.Context, routingKey string, body []byte) error

// ConsumeWithRetry runs handler for every message on queue until ctx is done
// or the channel closes. Failed messages are re-queued with a retry counter
// and dead-lettered after maxRetries.
func (c *Client) ConsumeWithRetry(ctx context.Context, queue string, handler HandlerFunc, maxRetries int, retryDelay time.Duration) error {
	msgs, err := c.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		var msg amqp.Delivery
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok = <-msgs:
			if !ok {
				return errors.New("consumer closed")
			}
		}

		routingKey := RoutingKeyOf(msg)
		err := handler(ctx, routingKey, msg.Body)
		if err == nil {
			_ = msg.Ack(false)
			continue
		}

		retryCount := getRetryCount(msg.Headers)
		if retryCount >= maxRetries {
			_ = msg.Nack(false, false)
			continue
		}

		headers := amqp.Table{}
		for k, v := range msg.Headers {
			headers[k] = v
		}
		headers[retryCountHeader] = int32(retryCount + 1)
		headers[routingKeyHeader] = routingKey

		select {
		case <-ctx.Done():
			_ = msg.Nack(false, true)
			return ctx.Err()
		case <-time.After(retryDelay):
		}
		_ = c.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.MessageId,
			Body:         msg.Body,
			Headers:      headers,
			Timestamp:    time.Now(),
		})
		_ = msg.Ack(false)
	}
}

// RoutingKeyOf is the key msg was first published with.
func RoutingKeyOf(msg amqp.Delivery) string {
	if v, ok := msg.Headers[routingKeyHeader].(string); ok && v != "" {
		return v
	}
	return msg.RoutingKey
}

func getRetryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	if v, ok := headers[retryCountHeader]; ok {
		switch t := v.(type) {
		case int32:
			return int(t)
		case int64:
			return int(t)
		case int:
			return t
		}
	}
	return 0
}
