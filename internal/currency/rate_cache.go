package currency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const DefaultMaxAge = 30 * time.Minute

var ErrInvalidRate = errors.New("invalid exchange rate")

type Rate struct {
	PkrPerUsd float64   `json:"pkrPerUsd"`
	FetchedAt time.Time `json:"fetchedAt"`
}

func (r Rate) Valid() bool {
	return validRate(r.PkrPerUsd) && !r.FetchedAt.IsZero()
}

func (r Rate) IsStale(now time.Time, maxAge time.Duration) bool {
	if r.FetchedAt.IsZero() {
		return true
	}
	return now.Sub(r.FetchedAt) > maxAge
}

type RateProvider interface {
	FetchRate(ctx context.Context) (Rate, error)
}

// RateCache is the process-wide exchange-rate state. It is created once at
// startup and shared by reference. Readers never block on the network: a
// stale or missing rate schedules a single background refresh and the
// last-known value is returned meanwhile.
type RateCache struct {
	provider RateProvider
	maxAge   time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.RWMutex
	rate Rate
	has  bool

	refreshing atomic.Bool
	inflight   sync.WaitGroup

	subsMu      sync.Mutex
	subscribers map[int]func(Rate)
	nextSubID   int
}

func NewRateCache(provider RateProvider, maxAge time.Duration, logger *zap.Logger) *RateCache {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateCache{
		provider:    provider,
		maxAge:      maxAge,
		logger:      logger,
		now:         time.Now,
		subscribers: make(map[int]func(Rate)),
	}
}

// Current returns the last-known rate. ok is false only when no rate has ever
// been fetched.
func (c *RateCache) Current() (rate Rate, ok bool, stale bool) {
	c.mu.RLock()
	rate, ok = c.rate, c.has
	c.mu.RUnlock()

	stale = !ok || rate.IsStale(c.now(), c.maxAge)
	if stale {
		c.refreshAsync()
	}
	return rate, ok, stale
}

// PkrPerUsd is a convenience for Convert/Format callers; it returns 0 when no
// rate is known.
func (c *RateCache) PkrPerUsd() float64 {
	rate, ok, _ := c.Current()
	if !ok {
		return 0
	}
	return rate.PkrPerUsd
}

// Set stores rate if it is valid. Last write wins.
func (c *RateCache) Set(rate Rate) bool {
	if !rate.Valid() {
		return false
	}
	c.mu.Lock()
	c.rate = rate
	c.has = true
	c.mu.Unlock()

	c.notify(rate)
	return true
}

func (c *RateCache) Refresh(ctx context.Context) (Rate, error) {
	if c.provider == nil {
		return Rate{}, errors.New("exchange rate provider is not configured")
	}
	rate, err := c.provider.FetchRate(ctx)
	if err != nil {
		return Rate{}, err
	}
	if !c.Set(rate) {
		return Rate{}, ErrInvalidRate
	}
	return rate, nil
}

func (c *RateCache) refreshAsync() {
	if c.provider == nil {
		return
	}
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer c.refreshing.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := c.Refresh(ctx); err != nil {
			c.logger.Warn("exchange rate refresh failed; keeping last known rate", zap.Error(err))
		}
	}()
}

// Run refreshes on every tick until ctx is done. The first refresh happens
// immediately.
func (c *RateCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.maxAge
	}
	c.refreshAsync()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refreshAsync()
		}
	}
}

func (c *RateCache) Subscribe(fn func(Rate)) (unsubscribe func()) {
	c.subsMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.subsMu.Unlock()

	return func() {
		c.subsMu.Lock()
		delete(c.subscribers, id)
		c.subsMu.Unlock()
	}
}

func (c *RateCache) notify(rate Rate) {
	c.subsMu.Lock()
	fns := make([]func(Rate), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.subsMu.Unlock()

	for _, fn := range fns {
		fn(rate)
	}
}
