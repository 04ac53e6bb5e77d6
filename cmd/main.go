package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/internal/order"
	"julianmorley.ca/con-plar/eatathome/internal/router"
	"julianmorley.ca/con-plar/eatathome/internal/store"
	"julianmorley.ca/con-plar/eatathome/internal/store/memstore"
	"julianmorley.ca/con-plar/eatathome/pkg/ai"
	"julianmorley.ca/con-plar/eatathome/pkg/global"
	"julianmorley.ca/con-plar/eatathome/pkg/kafka"
	"julianmorley.ca/con-plar/eatathome/pkg/logger"
	"julianmorley.ca/con-plar/eatathome/pkg/mongo"
	"julianmorley.ca/con-plar/eatathome/pkg/redis"
)

// backend is the set of ports one storage driver provides.
type backend interface {
	store.CartStore
	store.OrderStore
	store.Catalog
	store.UserDirectory
	router.Pinger
}

func main() {
	envErr := godotenv.Load()

	cfg, err := global.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if envErr != nil {
		zlog.Info("No .env file loaded, using process environment", zap.Error(envErr))
	}

	var db backend
	var closers []func(context.Context) error

	switch cfg.StoreDriver {
	case global.StoreDriverMemory:
		zlog.Warn("Using in-memory store, data is lost on restart")
		db = memstore.New()
	default:
		ctx, cancel := global.GetDefaultTimer()
		mdb, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, zlog)
		cancel()
		if err != nil {
			zlog.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		closers = append(closers, mdb.Close)

		ctx, cancel = global.GetDefaultTimer()
		err = mdb.EnsureIndexes(ctx)
		cancel()
		if err != nil {
			zlog.Fatal("Failed to ensure indexes", zap.Error(err))
		}
		db = mdb
	}

	var cartView store.Catalog = db
	var orderOpts []order.Option

	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(cfg.RedisAddress, cfg.RedisPassword)
		closers = append(closers, func(context.Context) error { return rdb.Close() })

		cached := redis.NewCachedCatalog(rdb, db, cfg.ItemCacheTTL, zlog)
		ctx, cancel := global.GetDefaultTimer()
		if n, err := cached.Warm(ctx); err != nil {
			zlog.Warn("Item cache warm-up failed", zap.Error(err))
		} else {
			zlog.Info("Item cache warmed", zap.Int("items", n))
		}
		cancel()

		cartView = cached
		orderOpts = append(orderOpts, order.WithLocker(redis.NewLocker(rdb, cfg.CheckoutLockTTL, zlog)))
	} else if mem, ok := db.(*memstore.Store); ok {
		orderOpts = append(orderOpts, order.WithLocker(mem))
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, zlog)
		closers = append(closers, func(context.Context) error { return producer.Close() })
		orderOpts = append(orderOpts, order.WithPublisher(producer))
	}

	summaries := ai.New(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIDeployment, zlog)
	engine := router.NewEngine(cfg, newServices(db, cartView, summaries, zlog, orderOpts...), zlog)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("Server is running", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			zlog.Warn("Error releasing resource", zap.Error(err))
		}
	}
	zlog.Info("Server exited")
}
