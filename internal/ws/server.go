package ws

import (
	"net/http"
	"sync"
	"time"

	"storefront-services/internal/currency"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	MessageRateUpdated     = "rate.updated"
	MessageRateUnavailable = "rate.unavailable"

	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RateFeed is the exchange-rate cache seen by the push channel.
type RateFeed interface {
	Current() (rate currency.Rate, ok bool, stale bool)
	Subscribe(fn func(currency.Rate)) (unsubscribe func())
}

type RateMessage struct {
	Type      string    `json:"type"`
	PkrPerUsd float64   `json:"pkrPerUsd,omitempty"`
	FetchedAt time.Time `json:"fetchedAt,omitempty"`
	Stale     bool      `json:"stale"`
}

type Server struct {
	Logger    *zap.Logger
	Heartbeat time.Duration

	rates *rateRealtime
}

func New(feed RateFeed, logger *zap.Logger, heartbeat time.Duration) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Server{
		Logger:    logger,
		Heartbeat: heartbeat,
		rates:     newRateRealtime(feed, logger),
	}
}

// Close stops forwarding rate updates. Open sockets end when their
// connections close.
func (s *Server) Close() {
	s.rates.stop()
}

type wsRealtimeClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsRealtimeClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(value)
}

func (c *wsRealtimeClient) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

type rateRealtime struct {
	feed   RateFeed
	logger *zap.Logger

	started     sync.Once
	unsubscribe func()

	mu      sync.RWMutex
	clients map[*wsRealtimeClient]struct{}
}

func newRateRealtime(feed RateFeed, logger *zap.Logger) *rateRealtime {
	return &rateRealtime{
		feed:    feed,
		logger:  logger,
		clients: make(map[*wsRealtimeClient]struct{}),
	}
}

func (rr *rateRealtime) ensureStarted() {
	rr.started.Do(func() {
		if rr.feed == nil {
			return
		}
		unsubscribe := rr.feed.Subscribe(func(rate currency.Rate) {
			rr.broadcast(RateMessage{Type: MessageRateUpdated, PkrPerUsd: rate.PkrPerUsd, FetchedAt: rate.FetchedAt})
		})
		rr.mu.Lock()
		rr.unsubscribe = unsubscribe
		rr.mu.Unlock()
	})
}

func (rr *rateRealtime) stop() {
	rr.mu.Lock()
	unsubscribe := rr.unsubscribe
	rr.unsubscribe = nil
	rr.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (rr *rateRealtime) subscribe(client *wsRealtimeClient) (unsubscribe func()) {
	rr.mu.Lock()
	rr.clients[client] = struct{}{}
	rr.mu.Unlock()

	return func() {
		rr.mu.Lock()
		delete(rr.clients, client)
		rr.mu.Unlock()
	}
}

func (rr *rateRealtime) snapshot() RateMessage {
	if rr.feed == nil {
		return RateMessage{Type: MessageRateUnavailable}
	}
	rate, ok, stale := rr.feed.Current()
	if !ok {
		return RateMessage{Type: MessageRateUnavailable, Stale: true}
	}
	return RateMessage{Type: MessageRateUpdated, PkrPerUsd: rate.PkrPerUsd, FetchedAt: rate.FetchedAt, Stale: stale}
}

func (rr *rateRealtime) broadcast(message any) {
	rr.mu.RLock()
	clients := make([]*wsRealtimeClient, 0, len(rr.clients))
	for c := range rr.clients {
		clients = append(clients, c)
	}
	rr.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			rr.mu.Lock()
			delete(rr.clients, c)
			rr.mu.Unlock()
		}
	}
}

func (rr *rateRealtime) count() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return len(rr.clients)
}

// ExchangeRateWS sends the current rate on connect and every update after.
func (s *Server) ExchangeRateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.rates.ensureStarted()
	client := &wsRealtimeClient{conn: conn}
	unsubscribe := s.rates.subscribe(client)
	defer unsubscribe()

	if err := client.writeJSON(s.rates.snapshot()); err != nil {
		return
	}

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.Heartbeat)
	defer ticker.Stop()
	ctx := r.Context()
	for {
		select {
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.ping(); err != nil {
				s.Logger.Debug("ws heartbeat failed", zap.Error(err))
				return
			}
		}
	}
}
