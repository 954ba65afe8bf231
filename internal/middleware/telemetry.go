package middleware

import (
	"bufio"
	"errors"
	"math"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const latencyWindowSize = 200

// routeStats keeps the last latencyWindowSize durations of a route in a ring
// plus lifetime request counters.
type routeStats struct {
	ring         []int64
	next         int
	requests     int64
	clientErrors int64
	serverErrors int64
}

func (s *routeStats) observe(ms int64, status int) {
	if len(s.ring) < latencyWindowSize {
		s.ring = append(s.ring, ms)
	} else {
		s.ring[s.next] = ms
		s.next = (s.next + 1) % latencyWindowSize
	}
	s.requests++
	switch {
	case status >= 500:
		s.serverErrors++
	case status >= 400:
		s.clientErrors++
	}
}

func (s *routeStats) sorted() []int64 {
	out := append([]int64(nil), s.ring...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// nearest-rank percentile over sorted values.
func percentile(sorted []int64, p float64) int64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

type routeRegistry struct {
	mu     sync.Mutex
	routes map[string]*routeStats
}

func (reg *routeRegistry) observe(key string, ms int64, status int) (p50, p95 int64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	stats, ok := reg.routes[key]
	if !ok {
		stats = &routeStats{}
		reg.routes[key] = stats
	}
	stats.observe(ms, status)
	sorted := stats.sorted()
	return percentile(sorted, 0.5), percentile(sorted, 0.95)
}

// RouteLatency is one route's rolling latency window and request counters.
type RouteLatency struct {
	Route        string `json:"route"`
	Samples      int    `json:"samples"`
	Requests     int64  `json:"requests"`
	ClientErrors int64  `json:"clientErrors"`
	ServerErrors int64  `json:"serverErrors"`
	P50Ms        int64  `json:"p50Ms"`
	P95Ms        int64  `json:"p95Ms"`
}

func (reg *routeRegistry) snapshot() []RouteLatency {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	out := make([]RouteLatency, 0, len(reg.routes))
	for key, stats := range reg.routes {
		sorted := stats.sorted()
		out = append(out, RouteLatency{
			Route:        key,
			Samples:      len(sorted),
			Requests:     stats.requests,
			ClientErrors: stats.clientErrors,
			ServerErrors: stats.serverErrors,
			P50Ms:        percentile(sorted, 0.5),
			P95Ms:        percentile(sorted, 0.95),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

var routeTelemetry = &routeRegistry{routes: make(map[string]*routeStats)}

// LatencySnapshot reports the rolling p50/p95 per route seen by Telemetry.
func LatencySnapshot() []RouteLatency {
	return routeTelemetry.snapshot()
}

type telemetryRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *telemetryRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *telemetryRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytes += n
	return n, err
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *telemetryRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return hj.Hijack()
}

// routeKey prefers the chi pattern so /products/{id} aggregates as one route.
func routeKey(r *http.Request) (key, pattern string) {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		pattern = rc.RoutePattern()
	}
	if pattern == "" {
		return r.Method + " " + r.URL.Path, ""
	}
	return r.Method + " " + pattern, pattern
}

func Telemetry(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &telemetryRecorder{ResponseWriter: w}

			next.ServeHTTP(recorder, r)

			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start).Milliseconds()
			key, pattern := routeKey(r)
			p50, p95 := routeTelemetry.observe(key, elapsed, status)

			logger.Debug("route latency",
				zap.String("route", key),
				zap.String("routePattern", pattern),
				zap.String("requestId", readRequestID(r)),
				zap.Int("status", status),
				zap.Int("bytes", recorder.bytes),
				zap.Int64("durationMs", elapsed),
				zap.Int64("p50Ms", p50),
				zap.Int64("p95Ms", p95),
			)
		})
	}
}
