package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"storefront-services/internal/checkout"
	"storefront-services/internal/config"
	"storefront-services/internal/currency"
	"storefront-services/internal/http/handlers"
	"storefront-services/internal/middleware"
	"storefront-services/internal/queue"
	"storefront-services/internal/reviews"
	"storefront-services/internal/sales"
	"storefront-services/internal/store"
	"storefront-services/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps are the services the router wires into handlers.
type Deps struct {
	Store    store.Store
	Queue    *queue.Client
	Events   handlers.Events
	Dispatch queue.HandlerFunc
	Rates    *currency.RateCache
	Checkout *checkout.Service
	Sales    *sales.Service
	Reviews  *reviews.Service
	Archive  handlers.Archive
	WS       *ws.Server
}

func NewRouter(logger *zap.Logger, cfg config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"X-Request-ID",
				"Cache-Control",
			},
			ExposedHeaders:   []string{"X-Request-ID", "X-Report-URL", "X-Report-Run-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{
		Store:    deps.Store,
		Logger:   logger,
		Config:   cfg,
		Queue:    deps.Queue,
		Events:   deps.Events,
		Dispatch: deps.Dispatch,
		Rates:    deps.Rates,
		Checkout: deps.Checkout,
		Sales:    deps.Sales,
		Reviews:  deps.Reviews,
		Archive:  deps.Archive,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.Store != nil {
			if err := deps.Store.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("store unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Use(setResponseHeader("X-Storefront-Service", "native"))
		r.Use(middleware.OptionalAuth(cfg.JWTSecret))
		r.Get("/exchange-rate", h.PublicExchangeRate)
		r.Get("/settings/storefront", h.PublicStorefrontSettings)
		r.Get("/settings/footer", h.PublicFooter)
		r.Get("/products/{id}", h.PublicProductDetail)
		r.Get("/deals/super", h.PublicSuperDeals)
		r.Post("/shipping/quote", h.PublicShippingQuote)
		r.Post("/coupons/validate", h.PublicCouponValidate)
		r.Post("/checkout/quote", h.PublicCheckoutQuote)
		r.Post("/orders", h.PublicOrderCreate)
		r.Post("/reviews", h.PublicReviewCreate)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(setResponseHeader("X-Storefront-Service", "native"))
		r.Use(middleware.AdminAuth(cfg.JWTSecret))
		r.Put("/orders/{id}/status", h.AdminOrderStatusUpdate)
		r.Put("/returns/{id}/status", h.AdminReturnStatusUpdate)
		r.Post("/reviews/{id}/hide", h.AdminReviewHide)
		r.Post("/reviews/{id}/unhide", h.AdminReviewUnhide)
		r.Patch("/reviews/{id}", h.AdminReviewUpdate)
		r.Delete("/reviews/{id}", h.AdminReviewDelete)
		r.Post("/products/{id}/recompute", h.AdminProductRecompute)
		r.Post("/sold-count/recompute", h.AdminSoldCountRecompute)
		r.Get("/sold-count/runs", h.AdminSoldCountRuns)
		r.Get("/sold-count/runs/{runId}", h.AdminSoldCountRun)
		r.Get("/reports/sold-count.pdf", h.AdminSoldCountReportPDF)
		r.Get("/telemetry", h.AdminTelemetry)
	})

	r.Route("/api/cron", func(r chi.Router) {
		r.Use(middleware.CronAuth(cfg.CronSecret))
		r.Post("/sold-count/recompute", h.CronSoldCountRecompute)
		r.Post("/queue/drain", h.CronQueueDrain)
	})

	if deps.WS != nil {
		r.Get("/ws/exchange-rate", deps.WS.ExchangeRateWS)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func setResponseHeader(name string, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(name, value)
			next.ServeHTTP(w, r)
		})
	}
}
