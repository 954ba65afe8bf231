package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-services/internal/checkout"
	"storefront-services/internal/config"
	"storefront-services/internal/currency"
	httpapi "storefront-services/internal/http"
	"storefront-services/internal/http/handlers"
	"storefront-services/internal/logger"
	"storefront-services/internal/queue"
	"storefront-services/internal/reviews"
	"storefront-services/internal/sales"
	"storefront-services/internal/storage"
	"storefront-services/internal/store"
	"storefront-services/internal/store/memstore"
	"storefront-services/internal/store/mongostore"
	"storefront-services/internal/store/pgstore"
	"storefront-services/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		st, err := pgstore.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureSchema(ctx); err != nil {
			_ = st.Close(ctx)
			return nil, err
		}
		return st, nil
	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil
	default:
		st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureIndexes(ctx); err != nil {
			log.Warn("mongo index setup failed", zap.Error(err))
		}
		return st, nil
	}
}

// openQueue connects to the broker and declares the recompute topology.
// Outside production a broker failure degrades to inline dispatch.
func openQueue(cfg config.Config, log *zap.Logger) *queue.Client {
	if cfg.RabbitMQURL == "" {
		log.Info("event queue disabled (RABBITMQ_URL is empty); events dispatch inline")
		return nil
	}

	qc, err := queue.New(cfg.RabbitMQURL)
	if err != nil {
		if cfg.Env == "production" {
			log.Fatal("rabbitmq connection failed", zap.Error(err))
		}
		log.Warn("rabbitmq connection failed; events dispatch inline", zap.Error(err))
		return nil
	}
	if err := queue.EnsureTopology(qc, cfg.RabbitMQExchange, cfg.RabbitMQQueue); err != nil {
		if cfg.Env == "production" {
			log.Fatal("rabbitmq topology failed", zap.Error(err))
		}
		log.Warn("rabbitmq topology failed; events dispatch inline", zap.Error(err))
		_ = qc.Close()
		return nil
	}
	log.Info("rabbitmq enabled",
		zap.String("exchange", cfg.RabbitMQExchange),
		zap.String("queue", cfg.RabbitMQQueue),
	)
	return qc
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("store connection failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.Close(context.Background())

	var provider currency.RateProvider
	if cfg.ExchangeRateURL != "" {
		provider = currency.NewHTTPRateProvider(cfg.ExchangeRateURL)
	} else {
		log.Warn("exchange rate feed disabled (EXCHANGE_RATE_URL is empty); USD prices are unavailable")
	}
	rates := currency.NewRateCache(provider, cfg.ExchangeRateMaxAge, log)
	if provider != nil {
		go rates.Run(ctx, cfg.ExchangeRateRefreshInterval)
	}

	var (
		archive      handlers.Archive
		salesArchive sales.Archiver
	)
	if cfg.ObjectStoreEnabled() {
		objects, err := storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
			StorageClass:    cfg.ObjectStoreStorageClass,
		})
		if err != nil {
			log.Warn("object store disabled", zap.Error(err))
		} else {
			archive = objects
			salesArchive = objects
		}
	}

	salesService := sales.NewService(st, salesArchive, log)
	reviewService := reviews.NewService(st, log)
	dispatcher := queue.NewDispatcher(salesService, reviewService, log)

	queueClient := openQueue(cfg, log)
	if queueClient != nil {
		defer queueClient.Close()
		if cfg.RabbitMQWorkerMode == "daemon" {
			log.Info("recompute worker enabled", zap.String("mode", "daemon"))
			go func() {
				err := queueClient.ConsumeWithRetry(ctx, cfg.RabbitMQQueue, dispatcher.Handle,
					int(cfg.RabbitMQMaxRetries), cfg.RabbitMQRetryDelay)
				if err != nil {
					log.Error("consumer stopped", zap.Error(err))
				}
			}()
		} else {
			log.Info("recompute worker disabled; drain via /api/cron/queue/drain", zap.String("mode", cfg.RabbitMQWorkerMode))
		}
	}
	events := queue.NewEmitter(queueClient, cfg.RabbitMQExchange, dispatcher.Handle, log)

	wsServer := ws.New(rates, log, cfg.WSHeartbeatInterval)
	defer wsServer.Close()

	apiServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(log, cfg, httpapi.Deps{
			Store:    st,
			Queue:    queueClient,
			Events:   events,
			Dispatch: dispatcher.Handle,
			Rates:    rates,
			Checkout: checkout.NewService(st, rates, events, log),
			Sales:    salesService,
			Reviews:  reviewService,
			Archive:  archive,
			WS:       wsServer,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront api ready", zap.String("base", "/api"))
		log.Info("storefront ws ready", zap.String("base", "/ws"))
		log.Info("storefront service listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreDriver),
		)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
