package queue

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

type publisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error
}

// Emitter sends storefront events to the broker. Without a broker the event
// is handed straight to the local Dispatcher so counters still update.
type Emitter struct {
	client   publisher
	exchange string
	local    HandlerFunc
	logger   *zap.Logger
}

// NewEmitter returns an emitter. Pass a nil client to run without a broker.
func NewEmitter(client *Client, exchange string, local HandlerFunc, logger *zap.Logger) *Emitter {
	e := &Emitter{exchange: exchange, local: local, logger: logger}
	if client != nil {
		e.client = client
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

func (e *Emitter) Emit(ctx context.Context, routingKey string, payload any) error {
	if e.client != nil {
		return e.client.PublishJSON(ctx, e.exchange, routingKey, payload)
	}
	if e.local == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return e.local(context.WithoutCancel(ctx), routingKey, body)
}
