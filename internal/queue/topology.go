package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "storefront.events"
	DefaultQueue    = "storefront.recompute"
	deadRoutingKey  = "dead"
)

// DeadLetterQueue is the queue exhausted messages land in.
func DeadLetterQueue(queue string) string {
	return queue + ".dlq"
}

func deadLetterExchange(exchange string) string {
	return exchange + ".dlx"
}

// EnsureTopology declares the events exchange, the recompute queue bound to
// every routing key the Dispatcher handles, and its dead-letter pair.
func EnsureTopology(qc *Client, exchange, queue string) error {
	if qc == nil {
		return nil
	}
	if err := qc.EnsureExchange(exchange); err != nil {
		return err
	}

	dlx := deadLetterExchange(exchange)
	if err := qc.EnsureExchangeKind(dlx, "direct"); err != nil {
		return err
	}
	if _, err := qc.EnsureQueue(DeadLetterQueue(queue)); err != nil {
		return err
	}
	if err := qc.BindQueue(DeadLetterQueue(queue), dlx, deadRoutingKey); err != nil {
		return err
	}

	_, err := qc.EnsureQueueWithArgs(queue, amqp.Table{
		"x-dead-letter-exchange":    dlx,
		"x-dead-letter-routing-key": deadRoutingKey,
	})
	if err != nil {
		return err
	}
	for _, rk := range RoutingKeys() {
		if err := qc.BindQueue(queue, exchange, rk); err != nil {
			return err
		}
	}
	return nil
}
